package main

import (
	"fmt"
	"text/tabwriter"

	"firefly/internal/config"
	"firefly/internal/stamper"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPositionsCmd(cfg *config.Config) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Print the position table in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := stamper.LoadPositionTable(cfg.Document.PositionsFile)
			if err != nil {
				return err
			}

			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any{"fields": table.Entries()}); err != nil {
					return err
				}
				return enc.Close()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tPAGE\tX\tY\tSIZE")
			for _, name := range table.Names() {
				p, _ := table.Lookup(name)
				fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\n", name, p.Page, p.X, p.Y, p.FontSize)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML (loadable via --positions)")
	return cmd
}
