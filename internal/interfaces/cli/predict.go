package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/molvista/molvista/internal/predict"
)

func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <smiles>",
		Short: "Predict quantum-mechanical properties for a molecule",
		Long:  "Run the configured inference service on a SMILES identifier and print the\npredicted QM9 property values with per-property confidence grades.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			return runPredict(cmd, cliCtx, args[0])
		},
	}
}

func runPredict(cmd *cobra.Command, cliCtx *CLIContext, raw string) error {
	svc := predict.NewService(
		predict.NewHTTPInference(cliCtx.Config.Prediction, nil),
		cliCtx.Logger, nil)

	resp, err := svc.Predict(cmd.Context(), raw)
	if err != nil {
		return err
	}

	if cliCtx.Output == "json" {
		return printJSON(cmd, resp)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSMILES:  %s\n", resp.SMILES)
	fmt.Fprintf(out, "Formula: %s  (MW %.1f)\n", resp.MoleculeInfo.Formula, resp.MoleculeInfo.MolecularWeight)
	fmt.Fprintf(out, "Model confidence: %s\n\n", colorizeConfidence(resp.ModelConfidence))

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Property", "Value", "Unit", "Confidence"})
	for _, p := range resp.Predictions {
		table.Append([]string{
			p.PropertyName,
			fmt.Sprintf("%.6g", p.Value),
			p.Unit,
			colorizeConfidence(p.Confidence),
		})
	}
	table.Render()
	fmt.Fprint(out, buf.String())
	return nil
}

func colorizeConfidence(c predict.Confidence) string {
	switch c {
	case predict.ConfidenceHigh:
		return color.GreenString(string(c))
	case predict.ConfidenceMedium:
		return color.YellowString(string(c))
	case predict.ConfidenceLow:
		return color.RedString(string(c))
	default:
		return string(c)
	}
}
