package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/forensiq/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored training sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		s, err := e.openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		module, _ := cmd.Flags().GetString("module")
		sessions, err := s.ListSessions(cmd.Context(), store.QueryOpts{Limit: limit, Module: module})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-36s  %-16s  %-28s  %-9s  %8s  %s\n",
			"Seq", "ID", "Started", "Module", "Score", "Percent", "Result")
		fmt.Fprintln(out, strings.Repeat("─", 120))
		for _, r := range sessions {
			result := "✗"
			if r.Passed {
				result = "✓"
			}
			fmt.Fprintf(out, "%-5d  %-36s  %-16s  %-28s  %4d/%-4d  %7.2f%%  %s\n",
				r.Sequence,
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Module, 28),
				r.Score, r.MaxScore,
				r.Percentage,
				result,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored session with its tasks, mistakes and debrief",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		s, err := e.openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		r, err := s.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("session %s not found", args[0])
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)

		fmt.Fprintf(out, "ID:        %s\n", r.ID)
		fmt.Fprintf(out, "Module:    %s\n", r.Module)
		fmt.Fprintf(out, "Started:   %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Elapsed:   %s\n", r.Elapsed)
		fmt.Fprintf(out, "Ended:     %s\n", r.Reason)
		fmt.Fprintf(out, "Score:     %d/%d (%.2f%%)\n", r.Score, r.MaxScore, r.Percentage)

		fmt.Fprintln(out)
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "TASKS")
		fmt.Fprintln(out, sep)
		for _, t := range r.Tasks {
			note := ""
			switch {
			case t.Skipped:
				note = "  skipped"
			case !t.Attempted:
				note = "  not attempted"
			}
			fmt.Fprintf(out, "%-6s %-28s %3d/%-3d  %d/%d done%s\n",
				t.Task, truncate(t.Name, 28), t.Score, t.MaxScore, t.UnitsDone, t.UnitsTotal, note)
			for _, m := range r.Mistakes {
				if m.Task == t.Task {
					fmt.Fprintf(out, "         -%-3d %s\n", m.Deduction, m.Description)
				}
			}
		}

		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "REPORT")
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, r.Report)

		if r.Debrief != "" {
			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, "DEBRIEF")
			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, r.Debrief)
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pass rates per module and the most common mistakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		s, err := e.openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.ModuleStats(ctx)
		if err != nil {
			return fmt.Errorf("query module stats: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No sessions recorded yet.")
			return nil
		}

		fmt.Fprintln(out, "Modules")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		fmt.Fprintf(out, "%-28s  %8s  %6s  %6s  %8s\n", "Module", "Sessions", "Passed", "Best", "Avg %")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, st := range stats {
			fmt.Fprintf(out, "%-28s  %8d  %6d  %6d  %7.2f%%\n",
				truncate(st.Module, 28), st.Sessions, st.Passed, st.BestScore, st.AvgPercentage)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		mistakes, err := s.CommonMistakes(ctx, limit)
		if err != nil {
			return fmt.Errorf("query mistakes: %w", err)
		}
		if len(mistakes) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Most Common Mistakes")
			fmt.Fprintln(out, strings.Repeat("─", 72))
			fmt.Fprintf(out, "%-52s  %6s  %10s\n", "Mistake", "Count", "Points")
			fmt.Fprintln(out, strings.Repeat("─", 72))
			for _, m := range mistakes {
				fmt.Fprintf(out, "%-52s  %6d  %10d\n", truncate(m.Description, 52), m.Count, m.Deduction)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	historyCmd.Flags().StringP("module", "m", "", "Filter by module name")
	historyStatsCmd.Flags().IntP("limit", "n", 10, "Number of mistakes to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
}
