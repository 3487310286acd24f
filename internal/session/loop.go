// Package session runs the interactive query loop: read a line, translate it,
// resolve its subject, dispatch it to a report, repeat until "exit".
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iishyfishyy/learnq/internal/command"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/history"
	"github.com/iishyfishyy/learnq/internal/logging"
	"github.com/iishyfishyy/learnq/internal/report"
	"github.com/iishyfishyy/learnq/internal/ui"
)

// ExitUtterance stops the loop.
const ExitUtterance = "exit"

// MaxLineBytes is the longest input line the loop accepts, line ending
// included.
const MaxLineBytes = 16 << 10

// State is a position in the loop's state machine.
type State int

const (
	AwaitingInput State = iota
	Translating
	Resolving
	Dispatching
	Stopped
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting-input"
	case Translating:
		return "translating"
	case Resolving:
		return "resolving"
	case Dispatching:
		return "dispatching"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Translator turns an utterance into a command.
type Translator interface {
	Translate(ctx context.Context, utterance string) (command.Command, error)
}

// Resolver maps candidate names onto catalog names.
type Resolver interface {
	ResolveCourse(ctx context.Context, candidate string) (string, error)
	ResolveUser(ctx context.Context, candidate string) (string, error)
}

// Pipeline is one report operation per dispatchable instruction.
type Pipeline interface {
	ListCourses() []string
	Statuses(course string, filter command.Filter, wantUsers bool) (*report.StatusReport, error)
	Results(course string, filter command.Filter, wantUsers bool) (*report.ResultReport, error)
	UserInfo(name string) (*report.UserInfoReport, error)
}

// Recorder stores a finished turn.
type Recorder interface {
	Add(ctx context.Context, e history.Entry) error
}

// Option configures a Loop.
type Option func(*Loop)

// WithRecorder records every turn.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithPrompt prints p before each read. Use it only when input is a terminal.
func WithPrompt(p string) Option {
	return func(l *Loop) { l.prompt = p }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(l *Loop) { l.sessionID = id }
}

// WithStateHook is called on every state change.
func WithStateHook(fn func(State)) Option {
	return func(l *Loop) { l.onState = fn }
}

// Loop is one interactive session. It is not safe for concurrent use.
type Loop struct {
	translator Translator
	resolver   Resolver
	pipeline   Pipeline
	recorder   Recorder

	in      *bufio.Reader
	out     io.Writer
	prompt  string
	readErr error

	sessionID string
	state     State
	turns     int
	onState   func(State)
	log       *zap.Logger
}

// New creates a loop reading from in and writing to out.
func New(t Translator, r Resolver, p Pipeline, in io.Reader, out io.Writer, opts ...Option) *Loop {
	l := &Loop{
		translator: t,
		resolver:   r,
		pipeline:   p,
		in:         bufio.NewReader(in),
		out:        out,
		sessionID:  uuid.NewString(),
		state:      AwaitingInput,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.L().With(logging.SessionID(l.sessionID))
	return l
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Turns returns the number of utterances processed, not counting blank lines
// or the exit utterance.
func (l *Loop) Turns() int { return l.turns }

// SessionID returns the id attached to logs and history.
func (l *Loop) SessionID() string { return l.sessionID }

// Run reads and handles lines until the exit utterance, end of input, or ctx
// is done. Per-turn failures, including over-long lines, are reported on out
// and never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("session_started")
	defer func() {
		l.log.Info("session_stopped", logging.Count(l.turns))
	}()

	for l.state != Stopped {
		if err := ctx.Err(); err != nil {
			l.setState(Stopped)
			return err
		}

		l.setState(AwaitingInput)
		line, err := l.readLine(l.prompt)
		switch {
		case errors.Is(err, lqerrors.ErrInputTooLong):
			entry, log := l.begin("")
			l.finish(ctx, entry, err, log)
		case err != nil:
			if err != io.EOF {
				l.readErr = err
			}
			l.setState(Stopped)
		default:
			l.handle(ctx, line)
		}
	}

	if l.readErr != nil {
		return fmt.Errorf("failed to read input: %w", l.readErr)
	}
	return nil
}

func (l *Loop) setState(s State) {
	l.state = s
	if l.onState != nil {
		l.onState(s)
	}
}

// readLine returns the next trimmed line, io.EOF at end of input, or an
// ErrInputTooLong error when the line exceeds MaxLineBytes. An over-long
// line is consumed in full so the next read starts on the following line.
func (l *Loop) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(l.out, prompt)
	}

	var (
		buf  []byte
		size int
	)
	for {
		chunk, err := l.in.ReadSlice('\n')
		size += len(chunk)
		if size <= MaxLineBytes {
			buf = append(buf, chunk...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && (size == 0 || err != io.EOF) {
			return "", err
		}
		break
	}

	if size > MaxLineBytes {
		return "", lqerrors.NewInputTooLongError(MaxLineBytes)
	}
	return strings.TrimSpace(string(buf)), nil
}

func isExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ExitUtterance)
}

// errStop unwinds a turn when exit is typed at a follow-up question.
var errStop = errors.New("session stopped")

func (l *Loop) handle(ctx context.Context, line string) {
	if line == "" {
		return
	}
	if isExit(line) {
		l.setState(Stopped)
		return
	}

	entry, log := l.begin(line)
	err := l.turn(ctx, line, &entry, log)
	l.finish(ctx, entry, err, log)
}

// begin counts a new turn.
func (l *Loop) begin(utterance string) (history.Entry, *zap.Logger) {
	l.turns++
	return history.Entry{
		SessionID: l.sessionID,
		Turn:      l.turns,
		Utterance: utterance,
	}, l.log.With(logging.Turn(l.turns))
}

// finish reports the outcome of a turn and records it.
func (l *Loop) finish(ctx context.Context, entry history.Entry, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, errStop):
		l.setState(Stopped)
		entry.Outcome = "stopped"
	case err != nil:
		code := lqerrors.CodeOf(err)
		entry.Outcome = string(code)
		entry.Error = err.Error()
		fields := []zap.Field{logging.ErrorCode(string(code)), zap.Error(err)}
		var lqErr *lqerrors.LearnqError
		if errors.As(err, &lqErr) {
			fields = append(fields, zap.Any("detail", lqErr.ToMap()))
		}
		log.Warn("turn_failed", fields...)
		ui.ShowError(l.out, UserMessage(err))
	default:
		entry.Outcome = history.OutcomeOK
		log.Info("turn_done",
			logging.Instruction(entry.Instruction),
			logging.Course(entry.Course),
		)
	}
	l.record(ctx, entry, log)
}

func (l *Loop) turn(ctx context.Context, line string, entry *history.Entry, log *zap.Logger) error {
	l.setState(Translating)
	cmd, err := l.translator.Translate(ctx, line)
	if err != nil {
		return err
	}
	entry.Instruction = cmd.RawInstruction
	entry.UserList = cmd.UserListRequested

	if !cmd.Instruction.Valid() {
		return lqerrors.NewUnrecognizedInstructionError(cmd.RawInstruction)
	}

	cmd = cmd.Scoped()
	entry.Filter = string(cmd.Filter)
	if cmd.Instruction.NeedsCourse() && cmd.CourseName == "" {
		question := "Which course? "
		if cmd.Instruction == command.UserInfo {
			question = "Which learner? "
		}
		answer, err := l.readLine(question)
		switch {
		case errors.Is(err, lqerrors.ErrInputTooLong):
			return err
		case err != nil:
			if err != io.EOF {
				l.readErr = err
			}
			return errStop
		case isExit(answer):
			return errStop
		}
		cmd.CourseName = answer
	}

	if cmd.CourseName != "" {
		l.setState(Resolving)
		resolve := l.resolver.ResolveCourse
		if cmd.Instruction == command.UserInfo {
			resolve = l.resolver.ResolveUser
		}
		resolved, err := resolve(ctx, cmd.CourseName)
		if err != nil {
			return err
		}
		if resolved != cmd.CourseName {
			log.Debug("name_repaired", zap.String("from", cmd.CourseName), zap.String("to", resolved))
		}
		cmd.CourseName = resolved
	}
	entry.Course = cmd.CourseName

	if err := cmd.Validate(); err != nil {
		return err
	}

	l.setState(Dispatching)
	return Dispatch(l.out, l.pipeline, cmd)
}

// Dispatch runs a validated command against p and renders the result on w.
func Dispatch(w io.Writer, p Pipeline, cmd command.Command) error {
	switch cmd.Instruction {
	case command.ListCourses:
		ui.RenderCourses(w, p.ListCourses())
	case command.Statuses:
		r, err := p.Statuses(cmd.CourseName, cmd.Filter, cmd.UserListRequested)
		if err != nil {
			return err
		}
		ui.RenderStatuses(w, r)
	case command.Results:
		r, err := p.Results(cmd.CourseName, cmd.Filter, cmd.UserListRequested)
		if err != nil {
			return err
		}
		ui.RenderResults(w, r)
	case command.UserInfo:
		r, err := p.UserInfo(cmd.CourseName)
		if err != nil {
			return err
		}
		ui.RenderUserInfo(w, r)
	case command.Placeholder:
		ui.ShowInfo(w, "I can't answer that yet. Try asking about a course's statuses or results, or a learner's courses.")
	default:
		// Unrecognized and anything outside the closed set.
		return lqerrors.NewUnrecognizedInstructionError(cmd.RawInstruction)
	}
	return nil
}

func (l *Loop) record(ctx context.Context, e history.Entry, log *zap.Logger) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Add(ctx, e); err != nil {
		log.Warn("history_write_failed", zap.Error(err))
	}
}

// UserMessage strips codes and causes from structured errors. It adds the
// closest match when resolution rejected one, any hint the error carries, and
// a retry note for transient failures.
func UserMessage(err error) string {
	var lqErr *lqerrors.LearnqError
	if !errors.As(err, &lqErr) {
		return err.Error()
	}
	msg := lqErr.Message
	switch {
	case errors.Is(err, lqerrors.ErrTranslationTransport) && lqErr.Cause != nil:
		msg += ": " + lqErr.Cause.Error()
	case errors.Is(err, lqerrors.ErrCourseNotResolved):
		if s, ok := lqErr.Context["suggestion"].(string); ok && s != "" {
			msg += fmt.Sprintf(" (closest guess %q is not in the catalog)", s)
		}
	}
	if hint, ok := lqErr.Context["hint"].(string); ok && hint != "" {
		msg += "; " + hint
	}
	if lqerrors.IsRetryableError(err) {
		msg += " (this may be temporary, try again)"
	}
	return msg
}
