package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"firefly/internal/bootstrap"
	"firefly/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStampCmd(cfg *config.Config) *cobra.Command {
	var templateFile, valuesFile, outFile string
	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Stamp placeholder values onto a template PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := os.ReadFile(templateFile)
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			values, err := readValues(cmd.InOrStdin(), valuesFile)
			if err != nil {
				return err
			}

			st, err := bootstrap.Stamper(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			res, err := st.Stamp(tpl, values)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, res.PDF, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tOUTCOME\tPAGE")
			for _, o := range res.Outcomes {
				page := "-"
				if o.Page > 0 {
					page = fmt.Sprint(o.Page)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.Name, o.Outcome, page)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d placed, %d skipped, %d pages -> %s\n", res.Placed(), res.Skipped(), res.PageCount, outFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&templateFile, "template", "", "template PDF")
	cmd.Flags().StringVar(&valuesFile, "values", "", `JSON object of placeholder values ("-" for stdin)`)
	cmd.Flags().StringVar(&outFile, "out", "report.pdf", "output PDF")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

// readValues 读取 {"name": "value"} JSON
func readValues(stdin io.Reader, path string) (map[string]string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse values: %w", err)
	}
	return values, nil
}
