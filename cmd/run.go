package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/debrief"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/llm"
	"github.com/abhisek/forensiq/internal/replay"
	"github.com/abhisek/forensiq/internal/scenario"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Replay a recorded trainee run and score it",
	Long: `Replays a script of trainee events against a scenario headlessly, prints the
final report and stores the session. The scenario defaults to the one named in
the script, then to session.scenario from the config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.logger.Sync() //nolint:errcheck

		script, err := replay.LoadScript(args[0])
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("scenario")
		if name == "" {
			name = script.Scenario
		}
		if name == "" {
			name = e.cfg.Session.Scenario
		}
		def, err := scenario.Load(name)
		if err != nil {
			return err
		}

		noSave, _ := cmd.Flags().GetBool("no-save")
		var st *store.Store
		if !noSave {
			if st, err = e.openStore(cmd); err != nil {
				return err
			}
			defer st.Close()
		}

		m := e.metrics()
		s, err := scenario.Assemble(def, engine.NewRecorder(), e.sessionConfig(), e.scenarioOptions(m))
		if err != nil {
			return err
		}
		if m != nil {
			s.OnEnd(m.SessionEnded)
		}

		ctx := cmd.Context()
		res, runErr := replay.Run(ctx, s, script, e.logger)
		if res == nil {
			return runErr
		}
		sum := res.Summary

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) session %s\n\n", def.Module, sum.Reason, sum.ID)
		fmt.Fprintln(out, sum.Report)

		if st != nil {
			if err := st.SaveSession(ctx, store.RecordFromSummary(sum)); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(out, "\nSaved session %s\n", sum.ID)
		}

		if wantDebrief, _ := cmd.Flags().GetBool("debrief"); wantDebrief {
			printDebrief(cmd, e, st, sum)
		}
		e.exportMetrics(m)

		if errors.Is(runErr, replay.ErrExpectation) {
			fmt.Fprintln(out, "\nUnmet expectations:")
			for _, f := range res.Failures {
				fmt.Fprintf(out, "  - %s\n", f)
			}
		}
		return runErr
	},
}

// printDebrief asks the coach for a debrief of sum, stores it when st is
// set, and prints it.
func printDebrief(cmd *cobra.Command, e *env, st *store.Store, sum *session.Summary) {
	ctx := cmd.Context()
	var log llm.RequestLog
	if st != nil {
		log = st
	}
	coach := debrief.NewCoach(e.provider(ctx, log), debrief.DefaultConfig(), e.logger)
	if !coach.Enabled() {
		fmt.Fprintln(cmd.ErrOrStderr(), "No LLM provider configured; skipping debrief.")
		return
	}

	var (
		text string
		err  error
	)
	if st != nil {
		text, err = coach.Save(ctx, st, sum)
	} else {
		text, err = coach.Text(ctx, sum)
	}
	if err != nil {
		e.logger.Warn("debrief failed", zap.Error(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nInstructor debrief\n\n%s\n", text)
}

func init() {
	runCmd.Flags().StringP("scenario", "s", "", "Built-in scenario name or scenario file")
	runCmd.Flags().Bool("no-save", false, "Do not store the session")
	runCmd.Flags().Bool("debrief", false, "Generate an instructor debrief with the configured LLM")
}
