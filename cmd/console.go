package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/console"
	"github.com/abhisek/forensiq/internal/debrief"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/llm"
	"github.com/abhisek/forensiq/internal/metrics"
	"github.com/abhisek/forensiq/internal/scenario"
	"github.com/abhisek/forensiq/internal/screen"
	"github.com/abhisek/forensiq/internal/screens/history"
	"github.com/abhisek/forensiq/internal/screens/home"
	"github.com/abhisek/forensiq/internal/screens/live"
	"github.com/abhisek/forensiq/internal/screens/summary"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/store"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the operator console",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd)
	},
}

// runConsole opens the store, builds dependencies, and launches the TUI.
func runConsole(cmd *cobra.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	var st *store.Store
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		if st, err = e.openStore(cmd); err != nil {
			return err
		}
		defer st.Close()
	}

	var log llm.RequestLog
	if st != nil {
		log = st
	}
	coach := debrief.NewCoach(e.provider(cmd.Context(), log), debrief.DefaultConfig(), e.logger)
	m := e.metrics()

	deps := home.Deps{
		Launch: func(name string) (screen.Screen, error) {
			s, err := newConsoleSession(e, name, st, m)
			if err != nil {
				return nil, err
			}
			return live.New(s, e.cfg.Session.Tick, func(sum *session.Summary) screen.Screen {
				return summary.New(sum, debriefFunc(coach, st))
			}), nil
		},
	}
	if st != nil {
		deps.History = func() screen.Screen { return history.New(st) }
	}
	for _, name := range scenario.Builtins() {
		def, err := scenario.Load(name)
		if err != nil {
			return err
		}
		deps.Modules = append(deps.Modules, home.Module{Name: name, Title: def.Module, Description: def.Description})
	}
	if extra, _ := cmd.Flags().GetString("scenario"); extra != "" {
		def, err := scenario.Load(extra)
		if err != nil {
			return err
		}
		deps.Modules = append(deps.Modules, home.Module{Name: extra, Title: def.Module, Description: def.Description})
	}

	return console.Run(home.New(deps))
}

// newConsoleSession assembles a session that is stored when it ends.
func newConsoleSession(e *env, name string, st *store.Store, m *metrics.Metrics) (*session.Session, error) {
	def, err := scenario.Load(name)
	if err != nil {
		return nil, err
	}
	s, err := scenario.Assemble(def, engine.NewRecorder(), e.sessionConfig(), e.scenarioOptions(m))
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", name, err)
	}
	if st != nil {
		s.OnEnd(func(sum *session.Summary) {
			if err := st.SaveSession(context.Background(), store.RecordFromSummary(sum)); err != nil {
				e.logger.Error("save session failed", zap.String("session", sum.ID.String()), zap.Error(err))
			}
		})
	}
	if m != nil {
		s.OnEnd(m.SessionEnded)
		s.OnEnd(func(*session.Summary) { e.exportMetrics(m) })
	}
	return s, nil
}

// debriefFunc stores the debrief when a store is open.
func debriefFunc(coach *debrief.Coach, st *store.Store) summary.DebriefFunc {
	if !coach.Enabled() {
		return nil
	}
	if st == nil {
		return coach.Text
	}
	return func(ctx context.Context, sum *session.Summary) (string, error) {
		return coach.Save(ctx, st, sum)
	}
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, consoleCmd} {
		c.Flags().Bool("no-store", false, "Do not open the results database")
		c.Flags().String("scenario", "", "Extra scenario file to offer in the menu")
	}
}
