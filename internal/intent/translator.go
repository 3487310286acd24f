// Package intent turns free text into commands and repairs the subject names
// those commands carry, using an LLM grounded on the catalog.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iishyfishyy/learnq/internal/agent"
	"github.com/iishyfishyy/learnq/internal/command"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/logging"
)

// Catalog is the part of the catalog store the translator grounds on.
type Catalog interface {
	Titles() []string
	UserNames() []string
}

// Translator maps one utterance onto one command.
type Translator struct {
	agent   agent.Agent
	catalog Catalog
}

// NewTranslator creates a translator over the given agent and catalog.
func NewTranslator(a agent.Agent, c Catalog) *Translator {
	return &Translator{agent: a, catalog: c}
}

// Translate asks the model for a command. The reply is parsed strictly; it is
// never coerced into a default command.
func (t *Translator) Translate(ctx context.Context, utterance string) (command.Command, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return command.Command{}, lqerrors.NewTranslationParseError("empty request", "", nil)
	}

	prompt := BuildTranslationPrompt(TranslationContext{
		Titles:    t.catalog.Titles(),
		UserNames: t.catalog.UserNames(),
	}, utterance)

	start := time.Now()
	reply, err := t.agent.Complete(ctx, prompt)
	if err != nil {
		return command.Command{}, transportError("translate", err)
	}

	cmd, err := ParseCommand(reply)
	if err != nil {
		logging.L().Debug("translation_rejected", zap.String("reply", reply), zap.Error(err))
		return command.Command{}, err
	}

	logging.L().Debug("translation_done",
		logging.Instruction(cmd.RawInstruction),
		logging.Course(cmd.CourseName),
		zap.String("filter", string(cmd.Filter)),
		zap.Bool("user_list", cmd.UserListRequested),
		logging.Duration(time.Since(start)),
	)
	return cmd, nil
}

var allowedKeys = map[string]bool{
	"instruction":       true,
	"courseName":        true,
	"filter":            true,
	"userListRequested": true,
}

// ParseCommand decodes a model reply into a command. Markdown fences are
// stripped; anything else outside a single JSON object is rejected. An
// instruction outside the closed set (or null) is not a parse failure: it
// yields Unrecognized with RawInstruction set.
func ParseCommand(reply string) (command.Command, error) {
	raw := stripFences(reply)
	if raw == "" {
		return command.Command{}, lqerrors.NewTranslationParseError("empty reply", reply, nil)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return command.Command{}, lqerrors.NewTranslationParseError("reply is not a JSON object", reply, err)
	}
	if fields == nil {
		return command.Command{}, lqerrors.NewTranslationParseError("reply is not a JSON object", reply, nil)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return command.Command{}, lqerrors.NewTranslationParseError("trailing data after JSON object", reply, nil)
	}

	var unknown []string
	for k := range fields {
		if !allowedKeys[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return command.Command{}, lqerrors.NewTranslationParseError(
			fmt.Sprintf("unknown fields %s", strings.Join(unknown, ", ")), reply, nil)
	}

	var cmd command.Command

	instr, present := fields["instruction"]
	if !present {
		return command.Command{}, lqerrors.NewTranslationParseError("missing instruction", reply, nil)
	}
	switch v := instr.(type) {
	case nil:
		cmd.RawInstruction = "null"
	case string:
		cmd.RawInstruction = strings.TrimSpace(v)
		if in, ok := command.ParseInstruction(v); ok {
			cmd.Instruction = in
		}
	default:
		return command.Command{}, lqerrors.NewTranslationParseError("instruction must be a string or null", reply, nil)
	}

	name, err := optionalString(fields, "courseName")
	if err != nil {
		return command.Command{}, lqerrors.NewTranslationParseError(err.Error(), reply, nil)
	}
	cmd.CourseName = strings.TrimSpace(name)

	filter, err := optionalString(fields, "filter")
	if err != nil {
		return command.Command{}, lqerrors.NewTranslationParseError(err.Error(), reply, nil)
	}
	cmd.Filter, err = command.ParseFilter(filter)
	if err != nil {
		return command.Command{}, lqerrors.NewTranslationParseError("filter outside the vocabulary", reply, err)
	}

	switch v := fields["userListRequested"].(type) {
	case nil:
	case bool:
		cmd.UserListRequested = v
	default:
		return command.Command{}, lqerrors.NewTranslationParseError("userListRequested must be a boolean", reply, nil)
	}

	return cmd, nil
}

func optionalString(fields map[string]interface{}, key string) (string, error) {
	switch v := fields[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%s must be a string or null", key)
	}
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := []byte(content[3:])
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		// drop the language tag line
		body = body[nl+1:]
	}
	if end := bytes.LastIndex(body, []byte("```")); end >= 0 {
		body = body[:end]
	}
	return string(bytes.TrimSpace(body))
}

func transportError(op string, err error) error {
	if errors.Is(err, lqerrors.ErrTranslationTransport) {
		return err
	}
	return lqerrors.NewTranslationTransportError(op, err)
}
