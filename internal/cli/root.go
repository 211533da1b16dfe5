package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nkarpov/celesta/internal/telemetry"
)

// rootOpts — общие флаги всех команд.
type rootOpts struct {
	jsonMode bool
	profile  string
	verbose  bool
}

// output создаёт Output после парсинга флагов.
func (o *rootOpts) output() *Output {
	return NewOutput(o.jsonMode)
}

// logger создаёт логгер: тихий по умолчанию, структурный с --verbose.
func (o *rootOpts) logger() *slog.Logger {
	if o.verbose {
		return telemetry.SetupLogger()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:           "celesta",
		Short:         "Celesta — astrological transit report pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "profile.yaml", "Path to subject profile")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable structured logging")

	cmd.AddCommand(
		newRunCmd(opts),
		newPlotCmd(opts),
		newValidateCmd(opts),
		newHistoryCmd(opts),
	)

	return cmd
}
