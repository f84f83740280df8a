package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) overviewCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show attendance across all subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStack(func(st *stack) error {
				overview, err := st.aggregator.ComputeOverview()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(overview)
				}
				fmt.Fprintln(out, renderOverview(overview, c.cfg.Threshold))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a summary")
	return cmd
}
