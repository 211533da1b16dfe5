package cli

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nkarpov/celesta/internal/history"
)

// newHistoryCmd создаёт группу команд истории runs.
func newHistoryCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect run history in Postgres",
	}

	cmd.AddCommand(
		newHistoryListCmd(opts),
		newHistoryShowCmd(opts),
		newHistoryStagesCmd(opts),
	)

	return cmd
}

// withRepos подключается к БД и передаёт репозитории в fn.
func withRepos(ctx context.Context, fn func(runs *history.RunRepo, stages *history.StageRepo) error) error {
	pool, err := history.NewPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(history.NewRunRepo(pool), history.NewStageRepo(pool))
}

func newHistoryListCmd(opts *rootOpts) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output()

			return withRepos(cmd.Context(), func(runs *history.RunRepo, _ *history.StageRepo) error {
				records, err := runs.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}

				headers := []string{"ID", "FLOW", "OUTCOME", "STARTED", "FINISHED"}
				rows := make([][]string, len(records))
				for i, rec := range records {
					rows[i] = []string{
						rec.ID.String(),
						rec.Flow,
						rec.Outcome,
						rec.StartedAt.Format(time.RFC3339),
						formatTimePtr(rec.FinishedAt),
					}
				}

				out.Print(headers, rows, records)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newHistoryShowCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a run by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			return withRepos(cmd.Context(), func(runs *history.RunRepo, _ *history.StageRepo) error {
				rec, err := runs.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}

				out.Print(
					[]string{"ID", "FLOW", "OUTCOME", "STARTED", "FINISHED"},
					[][]string{{
						rec.ID.String(),
						rec.Flow,
						rec.Outcome,
						rec.StartedAt.Format(time.RFC3339),
						formatTimePtr(rec.FinishedAt),
					}},
					rec,
				)
				return nil
			})
		},
	}
}

func newHistoryStagesCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stages RUN_ID",
		Short: "Show the stage log of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			return withRepos(cmd.Context(), func(_ *history.RunRepo, stages *history.StageRepo) error {
				rows, err := stages.ListByRun(cmd.Context(), id)
				if err != nil {
					return err
				}

				headers := []string{"STAGE", "STATUS", "STARTED", "FINISHED", "ERROR"}
				table := make([][]string, len(rows))
				for i, row := range rows {
					table[i] = []string{
						row.StageID,
						row.Status,
						formatTimePtr(row.StartedAt),
						formatTimePtr(row.FinishedAt),
						row.Error,
					}
				}

				out.Print(headers, table, rows)
				return nil
			})
		},
	}
}

// formatTimePtr форматирует опциональное время ("-" для nil).
func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
