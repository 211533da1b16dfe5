package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nkarpov/celesta/internal/config"
	"github.com/nkarpov/celesta/internal/pipeline"
	"github.com/nkarpov/celesta/internal/schedule"
)

// newValidateCmd создаёт команду проверки профиля.
func newValidateCmd(opts *rootOpts) *cobra.Command {
	var cronExpr string
	var timezone string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the profile and optionally a cron expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output()

			prof, err := config.Load(opts.profile)
			if err != nil {
				return err
			}

			// Граф собирается и валидируется целиком: ошибки схемы
			// или зависимостей всплывают здесь, а не при запуске.
			if _, err := pipeline.Build(pipeline.Config{
				Profile: prof,
				Logger:  opts.logger(),
			}); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Profile %q is valid (subject: %s)", opts.profile, prof.Name))

			if cronExpr != "" {
				if err := schedule.ValidateCronExpr(cronExpr); err != nil {
					return err
				}
				next, err := schedule.NextAfter(cronExpr, timezone, time.Now())
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Cron %q is valid, next run at %s",
					cronExpr, next.Format(time.RFC3339)))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression to validate")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone for the cron expression (default UTC)")

	return cmd
}
