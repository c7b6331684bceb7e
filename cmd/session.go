package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/export"
	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/ui/theme"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage stored tutoring sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sums, err := s.SessionRepo().List(commandContext(cmd), resolveOwner(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sums) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-9s  %-8s  %-9s  %5s  %-16s  %s\n",
			"ID", "Stage", "Level", "Status", "Turns", "Updated", "Topic")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, sum := range sums {
			level := sum.Level
			if level == "" {
				level = "-"
			}
			fmt.Fprintf(out, "%-36s  %-9s  %-8s  %-9s  %5d  %-16s  %s\n",
				sum.ID, sum.Stage, level, sum.Status, sum.Turns,
				sum.UpdatedAt.Local().Format("2006-01-02 15:04"),
				truncate(sum.Topic, 30))
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session's transcript and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sess, err := s.SessionRepo().Load(commandContext(cmd), args[0], resolveOwner(cmd))
		if err != nil {
			return notFound(args[0], err)
		}
		printSession(cmd.OutOrStdout(), sess)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SessionRepo().Delete(commandContext(cmd), args[0], resolveOwner(cmd)); err != nil {
			return notFound(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s.\n", args[0])
		return nil
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status <id> <active|completed|archived>",
	Short: "Change a session's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := session.ParseStatus(args[1])
		if err != nil {
			return err
		}
		return setStatus(cmd, args[0], status)
	},
}

var sessionArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], session.StatusArchived)
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a session as JSON, YAML or Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		exp, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sess, err := s.SessionRepo().Load(commandContext(cmd), args[0], resolveOwner(cmd))
		if err != nil {
			return notFound(args[0], err)
		}

		if output == "" {
			return exp.Export(sess, cmd.OutOrStdout())
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		if err := exp.Export(sess, f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", output)
		return nil
	},
}

func init() {
	sessionExportCmd.Flags().StringP("format", "f", "md", "Export format ("+strings.Join(export.Formats, ", ")+")")
	sessionExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionArchiveCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionExportCmd)
}

func setStatus(cmd *cobra.Command, id string, status session.Status) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SessionRepo().SetStatus(commandContext(cmd), id, resolveOwner(cmd), status); err != nil {
		return notFound(id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s is now %s.\n", id, status)
	return nil
}

func notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("session %s not found", id)
	}
	return err
}

func printSession(w io.Writer, s *session.Session) {
	fmt.Fprintf(w, "%s %s\n", theme.Title.Render("Session"), s.ID)
	fmt.Fprintf(w, "Topic:   %s\n", orDash(s.Topic))
	fmt.Fprintf(w, "Stage:   %s\n", theme.StageBadge(s.Stage))
	fmt.Fprintf(w, "Level:   %s\n", theme.LevelMeter(s.Level))
	if s.Level != "" {
		if g, err := levels.Rubric(s.Level, s.Topic); err == nil {
			fmt.Fprintf(w, "         %s\n", theme.Hint.Render(g))
		}
	}
	fmt.Fprintf(w, "Status:  %s\n", s.Status)
	fmt.Fprintf(w, "Updated: %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	if s.Notes != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Notes"))
		fmt.Fprintln(w, s.Notes)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Title.Render("Transcript"))
	for _, t := range s.Transcript {
		if t.Tutor != "" {
			fmt.Fprintln(w, theme.Tutor.Render("Tutor: ")+t.Tutor)
		}
		if t.Student != "" {
			fmt.Fprintln(w, theme.Student.Render("You:   ")+t.Student)
		}
	}

	if len(s.Equations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Equations"))
		for _, eq := range s.Equations {
			fmt.Fprintln(w, theme.Equation.Render(eq))
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
