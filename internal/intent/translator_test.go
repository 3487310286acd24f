package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iishyfishyy/learnq/internal/agent"
	"github.com/iishyfishyy/learnq/internal/catalog"
	"github.com/iishyfishyy/learnq/internal/command"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/lms"
)

func testCatalog() *catalog.Store {
	return catalog.New(
		[]lms.Course{{Title: "Sentiment and Summarisation"}, {Title: "Data Ethics"}},
		[]lms.User{{ID: "u1", Name: "Jane Smith"}, {ID: "u2", Name: "Ada Lovelace"}},
	)
}

// stubAgent answers with a fixed reply and records every prompt.
type stubAgent struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubAgent) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestTranslate(t *testing.T) {
	stub := &stubAgent{reply: `{"instruction": "-s", "courseName": "Data Ethics", "filter": "/completed", "userListRequested": true}`}
	tr := NewTranslator(stub, testCatalog())

	cmd, err := tr.Translate(context.Background(), "who finished data ethics?")
	require.NoError(t, err)

	assert.Equal(t, command.Command{
		Instruction:       command.Statuses,
		CourseName:        "Data Ethics",
		Filter:            command.FilterCompleted,
		UserListRequested: true,
		RawInstruction:    "-s",
	}, cmd)

	require.Len(t, stub.prompts, 1)
	prompt := stub.prompts[0]
	assert.Contains(t, prompt, "- Data Ethics\n")
	assert.Contains(t, prompt, "- Sentiment and Summarisation\n")
	assert.Contains(t, prompt, "- Jane Smith\n")
	assert.True(t, strings.HasSuffix(prompt, "Request: \"who finished data ethics?\"\nResponse:"),
		"utterance must come last")
}

func TestTranslatePromptOrder(t *testing.T) {
	prompt := BuildTranslationPrompt(TranslationContext{Titles: []string{"Data Ethics"}}, "list courses")

	rules := strings.Index(prompt, "Instructions:")
	examples := strings.Index(prompt, "Examples:")
	courses := strings.Index(prompt, "Courses:")
	utterance := strings.LastIndex(prompt, `Request: "list courses"`)

	assert.True(t, rules < examples && examples < courses && courses < utterance)
	assert.NotContains(t, prompt, "Learners:")
}

func TestTranslatePromptFilters(t *testing.T) {
	prompt := BuildTranslationPrompt(TranslationContext{}, "list courses")

	assert.Contains(t, prompt, `- with "-s": "/pending", "/in_progress", "/completed", "/overdue", "/failed", "/expired", "/in_review"`)
	assert.Contains(t, prompt, `- with "-r": "/full" (scored 100), "/below" (completed under 100)`)
	for _, f := range append(command.StatusFilters, command.ResultFilters...) {
		assert.Contains(t, prompt, `"`+f.Wire()+`"`)
	}
}

func TestTranslateTransportError(t *testing.T) {
	tr := NewTranslator(&stubAgent{err: errors.New("dial tcp: refused")}, testCatalog())

	_, err := tr.Translate(context.Background(), "list courses")
	assert.ErrorIs(t, err, lqerrors.ErrTranslationTransport)
	assert.NotErrorIs(t, err, lqerrors.ErrTranslationParse)
}

func TestTranslateKeepsGuardedError(t *testing.T) {
	guardedErr := lqerrors.NewTranslationTransportError("rate_limit", context.DeadlineExceeded)
	tr := NewTranslator(agent.Func(func(context.Context, string) (string, error) {
		return "", guardedErr
	}), testCatalog())

	_, err := tr.Translate(context.Background(), "list courses")
	assert.Same(t, guardedErr, err)
}

func TestTranslateEmptyUtterance(t *testing.T) {
	stub := &stubAgent{}
	_, err := NewTranslator(stub, testCatalog()).Translate(context.Background(), "   ")
	assert.ErrorIs(t, err, lqerrors.ErrTranslationParse)
	assert.Empty(t, stub.prompts)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  command.Command
	}{
		{
			name:  "list",
			reply: `{"instruction":"-l","courseName":null,"filter":null,"userListRequested":false}`,
			want:  command.Command{Instruction: command.ListCourses, RawInstruction: "-l"},
		},
		{
			name:  "fenced",
			reply: "```json\n{\"instruction\":\"-r\",\"courseName\":\"Data Ethics\",\"filter\":\"full\"}\n```",
			want:  command.Command{Instruction: command.Results, CourseName: "Data Ethics", Filter: command.FilterFull, RawInstruction: "-r"},
		},
		{
			name:  "user list defaults to false",
			reply: `{"instruction":"-info","courseName":" Jane Smith "}`,
			want:  command.Command{Instruction: command.UserInfo, CourseName: "Jane Smith", RawInstruction: "-info"},
		},
		{
			name:  "unknown instruction is unrecognized not a parse error",
			reply: `{"instruction":"-z","courseName":null,"filter":null,"userListRequested":false}`,
			want:  command.Command{Instruction: command.Unrecognized, RawInstruction: "-z"},
		},
		{
			name:  "null instruction",
			reply: `{"instruction":null}`,
			want:  command.Command{Instruction: command.Unrecognized, RawInstruction: "null"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandRejects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Sure! The instruction is -s."},
		{"empty", "   "},
		{"array", `[{"instruction":"-l"}]`},
		{"null", `null`},
		{"missing instruction", `{"courseName":"Data Ethics"}`},
		{"numeric instruction", `{"instruction":5}`},
		{"unknown field", `{"instruction":"-l","course":"Data Ethics"}`},
		{"course not string", `{"instruction":"-s","courseName":["Data Ethics"]}`},
		{"filter outside vocabulary", `{"instruction":"-s","courseName":"Data Ethics","filter":"/finished"}`},
		{"user list not boolean", `{"instruction":"-s","courseName":"Data Ethics","userListRequested":"yes"}`},
		{"trailing text", `{"instruction":"-l"} hope this helps`},
		{"two objects", `{"instruction":"-l"}{"instruction":"-s"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.reply)
			assert.ErrorIs(t, err, lqerrors.ErrTranslationParse)
		})
	}
}
