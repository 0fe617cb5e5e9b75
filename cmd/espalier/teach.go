package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/espalier-ai/espalier/internal/logging"
	"github.com/espalier-ai/espalier/internal/tui"
	"github.com/espalier-ai/espalier/pkg/domain"
)

var teachCmd = &cobra.Command{
	Use:   "teach <topic>",
	Short: "Run a one-shot tutoring session and print the lesson",
	Long: `Runs the full pipeline for a single topic and renders the lesson to the
terminal. Without a configured provider the lesson comes from the rule-based
fallbacks, which need no network at all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log.SlogLevel(), cfg.Log.JSON)

		name, _ := cmd.Flags().GetString("name")
		level, _ := cmd.Flags().GetString("level")
		style, _ := cmd.Flags().GetString("style")
		jsonMode, _ := cmd.Flags().GetBool("json")

		tutor := buildTutor(cfg, logger)
		profile := domain.StudentProfile{
			Name:  name,
			Level: domain.Level(level),
			Style: domain.Style(style),
		}

		state, err := tutor.Teach(cmd.Context(), strings.Join(args, " "), profile)
		if err != nil {
			return err
		}

		if jsonMode {
			return json.NewEncoder(os.Stdout).Encode(state)
		}

		markdown := tui.SessionMarkdown(state)
		if term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Print(tui.NewRenderer()(markdown))
			printStatusLine(state)
		} else {
			fmt.Print(markdown)
		}
		return nil
	},
}

func printStatusLine(state *domain.SessionState) {
	p := termenv.ColorProfile()
	status := termenv.String(string(state.Status))
	switch state.Status {
	case domain.StatusCompleted:
		status = status.Foreground(p.Color("#22c55e"))
	case domain.StatusAborted, domain.StatusCancelled:
		status = status.Foreground(p.Color("#ef4444"))
	}
	fmt.Printf("\nSession %s %s in %s\n", state.SessionID, status, state.Duration())
}

func init() {
	rootCmd.AddCommand(teachCmd)

	teachCmd.Flags().String("name", "", "Student name for the profile")
	teachCmd.Flags().String("level", "beginner", "Student level: beginner, intermediate or advanced")
	teachCmd.Flags().String("style", "mixed", "Learning style: visual, auditory, kinesthetic or mixed")
	teachCmd.Flags().Bool("json", false, "Print the raw session state as JSON")
}
