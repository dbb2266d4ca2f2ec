package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/render"
	"github.com/molvista/molvista/internal/structure"
)

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <smiles>",
		Short: "Run the render workflow headlessly",
		Long: "Drive the full load workflow for a molecule against a headless render\n" +
			"surface: fetch the structure, render it, and rotate it through one full\n" +
			"revolution, reporting state transitions along the way.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			return runView(cmd, cliCtx, args[0])
		},
	}
}

func runView(cmd *cobra.Command, cliCtx *CLIContext, raw string) error {
	id, err := molecule.ParseIdentifier(raw)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config

	fetcher, err := structure.NewFetcherFromConfig(cfg.Structure, cliCtx.Logger)
	if err != nil {
		return err
	}
	resolver := structure.NewResolver(cfg.Structure, nil, cliCtx.Logger, nil)
	provider := render.NewHeadlessProvider()

	orch := render.NewOrchestrator(provider, fetcher, resolver, cfg.Render, nil, cliCtx.Logger, nil)
	defer orch.Cancel()
	orch.Load(id)

	// Worst case: the full deadline, then one revolution of rotation.
	rotationBudget := time.Duration(360/cfg.Render.RotationStepDegrees+1) * cfg.Render.RotationTick
	waitBudget := cfg.Render.Deadline + rotationBudget + 2*time.Second

	out := cmd.OutOrStdout()
	var lastState render.State
	deadline := time.Now().Add(waitBudget)
	for time.Now().Before(deadline) {
		snap, ok := orch.Snapshot()
		if !ok {
			break
		}
		if snap.State != lastState {
			fmt.Fprintf(out, "state: %s\n", colorizeState(snap.State))
			lastState = snap.State
		}
		if snap.State.Terminal() {
			break
		}
		if snap.State == render.StateRendering && snap.RotationDegrees >= 360 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	snap, ok := orch.Snapshot()
	if !ok {
		return fmt.Errorf("no load was started")
	}
	if cliCtx.Output == "json" {
		return printJSON(cmd, snap)
	}
	fmt.Fprintf(out, "identifier: %s\n", snap.Identifier.String())
	if snap.Name != "" {
		fmt.Fprintf(out, "name:       %s\n", snap.Name)
	}
	fmt.Fprintf(out, "rotation:   %.0f°\n", snap.RotationDegrees)
	return nil
}

func colorizeState(s render.State) string {
	switch s {
	case render.StateRendering:
		return color.GreenString(string(s))
	case render.StateFallback:
		return color.RedString(string(s))
	default:
		return string(s)
	}
}
