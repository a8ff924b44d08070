package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptAnswer = "Answer the question"
	PromptStatus = "Show status"
	PromptEnd    = "End the interview"
)

var errExit = errors.New("exit requested")

var menu = promptui.Select{
	Label: "What next?",
	Items: []string{PromptAnswer, PromptStatus, PromptEnd},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		practice(cmd)
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().IntP("rounds", "r", 15, "stop after this many answered questions, 0 means no limit")
	practiceCmd.Flags().BoolP("no-menu", "n", false, "ask for the next answer right away instead of showing the menu")

}

// practice runs the interview loop in the terminal.
func practice(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logConfig(config, logger)

	engine, closeIndex, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the interview engine", zap.Error(err))
	}
	defer closeIndex()

	started, err := engine.Start(ctx)
	if err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}

	rounds, _ := cmd.Flags().GetInt("rounds")
	noMenu, _ := cmd.Flags().GetBool("no-menu")

	fmt.Printf("\n%s\n", started.Question)

	for {
		action := PromptAnswer
		if !noMenu {
			_, action, err = menu.Run()
			if err != nil {
				break
			}
		}

		err := handlePracticeAction(ctx, action, engine, logger)
		if errors.Is(err, errExit) {
			break
		}
		if err != nil {
			logger.Error("turn failed", zap.Error(err), zap.String("hint", "answer the question again"))
			continue
		}

		if rounds > 0 && engine.Status().RoundNumber > rounds {
			break
		}
	}

	printSummary(engine.End())
}

func handlePracticeAction(ctx context.Context, action string, engine *interview.Engine, logger *zap.Logger) error {
	switch action {
	case PromptAnswer:
		answerPrompt := promptui.Prompt{Label: "Your answer"}
		answer, err := answerPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errExit
			}
			return err
		}

		res, err := engine.SubmitAnswer(ctx, answer)
		if err != nil {
			return err
		}

		fmt.Printf("\nScore: %d/%d (average %.2f)\nFeedback: %s\n", res.Score, interview.MaxScore, res.AverageScore, res.Feedback)
		if res.TopicShifted {
			logger.Debug("topic shifted", zap.String("reason", string(res.ShiftReason)))
		}
		fmt.Printf("\n%s\n", res.NextQuestion)
		return nil
	case PromptStatus:
		status := engine.Status()
		fmt.Printf("\nRound %d, total score %d, %d question(s) in the current topic\n%s\n",
			status.RoundNumber, status.TotalScore, status.QuestionsInTopic, status.CurrentQuestion)
		return nil
	case PromptEnd:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printSummary(summary interview.Summary) {
	fmt.Printf("\nInterview completed: %d round(s), total score %d, average %.2f\n",
		summary.TotalRounds, summary.TotalScore, summary.AverageScore)

	for _, turn := range summary.History {
		marker := ""
		if turn.WasDontKnow {
			marker = " (did not know)"
		}
		fmt.Printf("\n%s\n  answer: %s%s\n  score: %d, %s\n",
			turn.Question, strings.TrimSpace(turn.Answer), marker, turn.Score, turn.Feedback)
	}
}
