package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/iishyfishyy/learnq/internal/agent"
	"github.com/iishyfishyy/learnq/internal/catalog"
	"github.com/iishyfishyy/learnq/internal/command"
	"github.com/iishyfishyy/learnq/internal/config"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/history"
	"github.com/iishyfishyy/learnq/internal/intent"
	"github.com/iishyfishyy/learnq/internal/logging"
	"github.com/iishyfishyy/learnq/internal/lms"
	"github.com/iishyfishyy/learnq/internal/report"
	"github.com/iishyfishyy/learnq/internal/session"
	"github.com/iishyfishyy/learnq/internal/ui"
)

const queryPrompt = "> "

// app holds everything a command needs once the catalog is loaded.
type app struct {
	cfg      *config.Config
	store    *catalog.Store
	pipeline *report.Pipeline
	guarded  *agent.Guarded
	history  *history.Store
}

type appOptions struct {
	configPath string
	debug      bool
	// needLLM validates the model settings up front.
	needLLM bool
}

func loadConfig(path string, debug bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg, debug); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, debug bool) error {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.LogDir = cfg.Log.Dir
	if debug {
		lc.Level = "debug"
		lc.EnableConsole = true
		lc.Console = os.Stderr
	}
	return logging.Setup(lc)
}

// newApp loads config, sets up logging and fetches the catalog. Any failure
// here ends the process.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig(opts.configPath, opts.debug)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateLMS(); err != nil {
		return nil, withFirstRunHint(err, opts.configPath)
	}

	a := &app{cfg: cfg}
	if opts.needLLM {
		if err := cfg.ValidateLLM(); err != nil {
			return nil, err
		}
		if a.guarded, err = agent.New(cfg.LLM); err != nil {
			return nil, err
		}
	}

	client := lms.NewClient(cfg.LMS.BaseURL, cfg.LMS.APIKey, cfg.LMS.Timeout)
	if a.store, err = catalog.Load(ctx, client); err != nil {
		return nil, err
	}

	a.pipeline = report.New(a.store)
	return a, nil
}

// withFirstRunHint points at "learnq configure" when no config file was
// given and the default one does not exist yet.
func withFirstRunHint(err error, path string) error {
	var lqErr *lqerrors.LearnqError
	if path != "" || !errors.As(err, &lqErr) {
		return err
	}
	if ok, existsErr := config.Exists(); existsErr != nil || ok {
		return err
	}
	return lqErr.WithContext("hint", `run "learnq configure" to create a config file`)
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logging.L().Warn("history_close_failed", zap.Error(err))
		}
	}
	_ = logging.Sync()
}

// llm builds the model client on first use, so flag commands whose names
// match the catalog exactly run without model settings.
func (a *app) llm() agent.Agent {
	return agent.Func(func(ctx context.Context, prompt string) (string, error) {
		if a.guarded == nil {
			if err := a.cfg.ValidateLLM(); err != nil {
				return "", err
			}
			g, err := agent.New(a.cfg.LLM)
			if err != nil {
				return "", err
			}
			a.guarded = g
		}
		return a.guarded.Complete(ctx, prompt)
	})
}

// openHistory returns nil when history is disabled or cannot be opened.
func (a *app) openHistory(errOut io.Writer) *history.Store {
	if !a.cfg.History.Enabled {
		return nil
	}
	h, err := history.Open(a.cfg.History.Path)
	if err != nil {
		logging.L().Warn("history_open_failed", zap.Error(err))
		ui.ShowWarning(errOut, fmt.Sprintf("query history disabled: %v", err))
		return nil
	}
	a.history = h
	return h
}

func (a *app) newLoop(in io.Reader, out io.Writer, opts ...session.Option) *session.Loop {
	if h := a.openHistory(os.Stderr); h != nil {
		opts = append(opts, session.WithRecorder(h))
	}
	model := a.llm()
	return session.New(
		intent.NewTranslator(model, a.store),
		intent.NewResolver(model, a.store),
		a.pipeline,
		in, out,
		opts...,
	)
}

// runQuery is the interactive loop behind -q.
func (a *app) runQuery(ctx context.Context, in *os.File, out io.Writer) error {
	var opts []session.Option
	if ui.IsInteractive(in) {
		ui.ShowInfo(out, fmt.Sprintf("Ask about your %d courses. Type %q to quit.", len(a.store.Titles()), session.ExitUtterance))
		opts = append(opts, session.WithPrompt(queryPrompt))
	}
	return a.newLoop(in, out, opts...).Run(ctx)
}

// ask runs a single question through the loop.
func (a *app) ask(ctx context.Context, question string, out io.Writer) error {
	return a.newLoop(strings.NewReader(question+"\n"), out).Run(ctx)
}

// runFlagCommand handles "<course> -s|-r [filter] [users]" and "<learner> -i".
func (a *app) runFlagCommand(ctx context.Context, la legacyArgs, out io.Writer) error {
	in, ok := command.ParseInstruction(la.Instruction)
	if !ok {
		return lqerrors.NewUnrecognizedInstructionError(la.Instruction)
	}
	filter, err := command.ParseFilter(la.Filter)
	if err != nil {
		return err
	}

	cmd := command.Command{
		Instruction:    in,
		CourseName:     la.Subject,
		Filter:         filter,
		RawInstruction: la.Instruction,
		// Without a filter the lists are always printed.
		UserListRequested: la.UserList || filter == command.NoFilter,
	}

	cmd = cmd.Scoped()
	if cmd.CourseName != "" {
		resolver := intent.NewResolver(a.llm(), a.store)
		resolve := resolver.ResolveCourse
		if in == command.UserInfo {
			resolve = resolver.ResolveUser
		}
		if cmd.CourseName, err = resolve(ctx, cmd.CourseName); err != nil {
			return err
		}
	}

	if err := cmd.Validate(); err != nil {
		return err
	}
	logging.L().Info("flag_command",
		logging.Instruction(cmd.Instruction.Flag()),
		logging.Course(cmd.CourseName),
	)
	return session.Dispatch(out, a.pipeline, cmd)
}

func (a *app) writeCourses(path string, out io.Writer) error {
	if path == "" {
		path = report.DefaultExportPath
	}
	if err := report.WriteCourses(path, a.store.Courses()); err != nil {
		return err
	}
	ui.ShowSuccess(out, fmt.Sprintf("Data written to %s", path))
	return nil
}
