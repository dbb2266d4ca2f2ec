package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/structure"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <smiles>",
		Short: "Resolve the IUPAC name of a molecule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			return runResolve(cmd, cliCtx, args[0])
		},
	}
}

func runResolve(cmd *cobra.Command, cliCtx *CLIContext, raw string) error {
	id, err := molecule.ParseIdentifier(raw)
	if err != nil {
		return err
	}

	resolver := structure.NewResolver(cliCtx.Config.Structure, nil, cliCtx.Logger, nil)
	name, err := resolver.Resolve(cmd.Context(), id)
	if err != nil {
		return err
	}

	if cliCtx.Output == "json" {
		return printJSON(cmd, map[string]string{"smiles": id.String(), "name": name})
	}
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
