package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// ProviderOption pairs a survey label with a provider id.
type ProviderOption struct {
	Label string
	Value string
}

// ConfigureProvider prompts the user to select an LLM provider.
func ConfigureProvider(options []ProviderOption, current string) (string, error) {
	labels := make([]string, len(options))
	def := ""
	for i, o := range options {
		labels[i] = o.Label
		if o.Value == current {
			def = o.Label
		}
	}
	if def == "" && len(labels) > 0 {
		def = labels[0]
	}

	var choice string
	prompt := &survey.Select{
		Message: "Select an LLM provider:",
		Options: labels,
		Default: def,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}

	for _, o := range options {
		if o.Label == choice {
			return o.Value, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", choice)
}

// PromptForInput asks for a free-text value, offering current as the default.
func PromptForInput(message, current string, required bool) (string, error) {
	var value string
	prompt := &survey.Input{
		Message: message,
		Default: current,
	}

	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(prompt, &value, opts...); err != nil {
		return "", err
	}
	return value, nil
}

// PromptForSecret asks for a key without echoing it. An empty answer keeps current.
func PromptForSecret(message, current string) (string, error) {
	if current != "" {
		message += " (leave blank to keep the current key)"
	}

	var value string
	if err := survey.AskOne(&survey.Password{Message: message}, &value); err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

// Confirm asks a yes/no question.
func Confirm(message string, def bool) (bool, error) {
	ok := def
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ShowSuccess displays a success message.
func ShowSuccess(w io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(w, "✓ %s\n", message)
}

// ShowError displays an error message.
func ShowError(w io.Writer, message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "✗ %s\n", message)
}

// ShowWarning displays a warning.
func ShowWarning(w io.Writer, message string) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(w, "! %s\n", message)
}

// ShowInfo displays an info message.
func ShowInfo(w io.Writer, message string) {
	blue := color.New(color.FgBlue)
	blue.Fprintln(w, message)
}
