// Package format renders final command results in the format selected
// by the --output flag. Human-readable output flows through the event
// stream instead; the text formatter only propagates errors.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Formatter renders a command's final result document.
type Formatter interface {
	// PrintResult renders the result payload. The text formatter is a
	// no-op; machine formats print one document to stdout.
	PrintResult(command string, payload any) error

	// PrintTotalFailureSummary renders a failure document and returns
	// the original error so the command exits non-zero.
	PrintTotalFailureSummary(command string, err error, code string) error
}

// FromCommand selects a formatter from the command's --output flag.
func FromCommand(cmd *cobra.Command) Formatter {
	outputFormat, _ := cmd.Flags().GetString("output")
	return ForFormat(outputFormat, os.Stdout)
}

// ForFormat selects a formatter by name; unknown names fall back to text.
func ForFormat(name string, w io.Writer) Formatter {
	switch strings.ToLower(name) {
	case "json":
		return &JSONFormatter{Writer: w}
	case "yaml":
		return &YAMLFormatter{Writer: w}
	default:
		return &TextFormatter{}
	}
}

type failureDoc struct {
	Command string `json:"command" yaml:"command"`
	Status  string `json:"status" yaml:"status"`
	Error   string `json:"error" yaml:"error"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
}

// TextFormatter leaves rendering to the human event subscribers.
type TextFormatter struct{}

func (f *TextFormatter) PrintResult(command string, payload any) error {
	return nil
}

func (f *TextFormatter) PrintTotalFailureSummary(command string, err error, code string) error {
	return err
}

// JSONFormatter prints one indented JSON document to its writer.
type JSONFormatter struct {
	Writer io.Writer
}

func (f *JSONFormatter) PrintResult(command string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s result: %w", command, err)
	}
	_, _ = fmt.Fprintln(f.Writer, string(data))
	return nil
}

func (f *JSONFormatter) PrintTotalFailureSummary(command string, err error, code string) error {
	doc := failureDoc{Command: command, Status: "failed", Error: err.Error(), Code: code}
	data, marshalErr := json.MarshalIndent(doc, "", "  ")
	if marshalErr != nil {
		return err
	}
	_, _ = fmt.Fprintln(f.Writer, string(data))
	return err
}

// YAMLFormatter prints one YAML document to its writer.
type YAMLFormatter struct {
	Writer io.Writer
}

func (f *YAMLFormatter) PrintResult(command string, payload any) error {
	data, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s result: %w", command, err)
	}
	_, _ = fmt.Fprint(f.Writer, string(data))
	return nil
}

func (f *YAMLFormatter) PrintTotalFailureSummary(command string, err error, code string) error {
	doc := failureDoc{Command: command, Status: "failed", Error: err.Error(), Code: code}
	data, marshalErr := yaml.Marshal(doc)
	if marshalErr != nil {
		return err
	}
	_, _ = fmt.Fprint(f.Writer, string(data))
	return err
}
