package cli

import (
	"github.com/spf13/cobra"

	"github.com/nkarpov/celesta/internal/config"
	"github.com/nkarpov/celesta/internal/pipeline"
)

// newPlotCmd создаёт команду вывода графа стадий.
func newPlotCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "plot",
		Short: "Print the stage graph in Graphviz DOT format",
		Long: `Plot builds the graph from the profile and prints it without executing.
Pipe the output to dot: celesta plot | dot -Tsvg -o graph.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			opts.output().Raw(f.Plot())
			return nil
		},
	}
}
