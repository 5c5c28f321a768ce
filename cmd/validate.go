package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate [scenario.yaml...]",
	Short: "Check scenario definitions",
	Long: `Parses each scenario file against the scenario schema, checks its references
and builds it into a session plan. Without arguments the built-in modules are
checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if len(names) == 0 {
			names = scenario.Builtins()
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range names {
			def, err := scenario.Load(name)
			if err == nil {
				ledger := assessment.NewLedger(scenario.LedgerConfig(def, 0), nil)
				_, err = scenario.Build(def, ledger, engine.NewRecorder(), scenario.Options{})
			}
			if err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s\n  %v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s: %s, %d tasks\n", name, def.Module, len(def.Tasks))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios invalid", failed, len(names))
		}
		return nil
	},
}
