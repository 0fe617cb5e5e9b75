package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/espalier-ai/espalier/internal/logging"
)

var assessCmd = &cobra.Command{
	Use:   "assess <response>",
	Short: "Grade a free-text answer",
	Long:  `Grades a student response against a topic. With a provider configured the model grades; otherwise keyword scoring applies.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log.SlogLevel(), cfg.Log.JSON)

		topic, _ := cmd.Flags().GetString("topic")
		question, _ := cmd.Flags().GetString("question")
		if topic == "" {
			return fmt.Errorf("--topic is required")
		}

		tutor := buildTutor(cfg, logger)
		graded := tutor.Assess(cmd.Context(), topic, question, strings.Join(args, " "), nil)

		verdict := "incorrect"
		if graded.Correct {
			verdict = "correct"
		}
		fmt.Printf("%s (score %.2f)\n%s\n", verdict, graded.Score, graded.Feedback)
		if graded.Explanation != "" {
			fmt.Println(graded.Explanation)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().String("topic", "", "Topic the response relates to")
	assessCmd.Flags().String("question", "", "The question that was asked")
}
