package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/output/subscribers"
)

// setupOutputPipeline wires the event stream for one command invocation:
// a human or JSON formatter depending on --output, plus the diagnostic
// subscriber when verbosity is raised.
func setupOutputPipeline(cmd *cobra.Command) output.Output {
	stream := output.NewOutputEventStream()

	outputFormat, _ := cmd.Flags().GetString("output")
	switch strings.ToLower(outputFormat) {
	case "json":
		stream.Subscribe(subscribers.NewJSONFormatter(os.Stdout))
	case "yaml":
		// Stdout carries only the final YAML document.
		stream.Subscribe(subscribers.NewHumanFormatter(os.Stderr, os.Stderr, false))
	default:
		colorEnabled := os.Getenv("NO_COLOR") == ""
		stream.Subscribe(subscribers.NewHumanFormatter(os.Stdout, os.Stderr, colorEnabled))
	}

	verbosity, _ := cmd.Flags().GetCount("verbosity")
	if verbosity > 0 {
		level := output.LevelVerbose
		switch {
		case verbosity >= 3:
			level = output.LevelTrace
		case verbosity == 2:
			level = output.LevelDebug
		}
		stream.Subscribe(subscribers.NewDiagnosticSubscriber(level, os.Stderr))
	}

	return output.NewDefaultOutput(stream)
}
