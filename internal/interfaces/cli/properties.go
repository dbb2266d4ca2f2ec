package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/molvista/molvista/internal/predict"
)

func newPropertiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "List the predictable properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			return runProperties(cmd, cliCtx)
		},
	}
}

func runProperties(cmd *cobra.Command, cliCtx *CLIContext) error {
	if cliCtx.Output == "json" {
		return printJSON(cmd, predict.Catalog)
	}

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Code", "Name", "Unit"})
	for _, p := range predict.Catalog {
		table.Append([]string{p.Code, p.Name, p.Unit})
	}
	table.Render()

	fmt.Fprint(cmd.OutOrStdout(), buf.String())
	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal properties: %d\n", len(predict.Catalog))
	return nil
}
