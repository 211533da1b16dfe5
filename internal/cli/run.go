package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nkarpov/celesta/internal/config"
	"github.com/nkarpov/celesta/internal/flow"
	"github.com/nkarpov/celesta/internal/pipeline"
)

// newRunCmd создаёт команду запуска pipeline.
func newRunCmd(opts *rootOpts) *cobra.Command {
	var transitMoment string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the transit report pipeline",
		Long: `Run builds the transit report graph from the profile and executes it
in-process. Artifacts are written to the output directory from the profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output()

			prof, err := config.Load(opts.profile)
			if err != nil {
				return err
			}

			f, err := pipeline.Build(pipeline.Config{
				Profile: prof,
				Logger:  opts.logger(),
			})
			if err != nil {
				return err
			}

			initial := map[string]any{}
			if transitMoment != "" {
				if _, err := time.Parse(time.RFC3339, transitMoment); err != nil {
					return fmt.Errorf("--transit-moment must be RFC3339: %w", err)
				}
				initial[pipeline.FieldTransitMoment] = transitMoment
			}

			res, err := f.Kickoff(cmd.Context(), initial)
			if err != nil {
				return err
			}

			printResult(out, res)

			if res.Outcome == flow.OutcomeFailed || res.Outcome == flow.OutcomeCancelled {
				return fmt.Errorf("run %s finished with outcome %s", res.RunID, res.Outcome)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transitMoment, "transit-moment", "", "Transit moment override (RFC3339)")

	return cmd
}

// printResult выводит итог run: журнал стадий и пути к артефактам.
func printResult(out *Output, res *flow.Result) {
	headers := []string{"STAGE", "STATUS", "DURATION", "ERROR"}
	rows := make([][]string, len(res.Log))
	for i, rec := range res.Log {
		rows[i] = []string{
			rec.StageID,
			string(rec.Status),
			rec.Duration().Round(time.Millisecond).String(),
			rec.Error,
		}
	}
	out.Print(headers, rows, res)

	out.Success(fmt.Sprintf("Run %s: %s in %s",
		res.RunID, res.Outcome, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond)))

	artifacts := []struct {
		label string
		field string
	}{
		{"Report", pipeline.FieldReportPath},
		{"HTML", pipeline.FieldReportHTMLPath},
		{"Chart", pipeline.FieldChartSVGPath},
		{"Email draft", pipeline.FieldEmailDraftPath},
	}
	for _, a := range artifacts {
		if path, _ := res.State[a.field].(string); path != "" {
			out.Success(fmt.Sprintf("%s: %s", a.label, path))
		}
	}
}
