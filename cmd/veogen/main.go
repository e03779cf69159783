package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptreel/server/internal/app"
	"github.com/promptreel/server/internal/module/ai/prompt"
	"github.com/promptreel/server/internal/module/ai/veo"
	"github.com/promptreel/server/internal/shared/config"
	"github.com/promptreel/server/internal/shared/logger"
)

// CLI flags
var (
	configFlag string

	textFlag           string
	outputFlag         string
	aspectRatioFlag    string
	durationFlag       int
	resolutionFlag     string
	negativePromptFlag string
	deadlineFlag       time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "veogen",
	Short: "Generate videos from structured prompts",
	Long: `veogen renders a structured JSON prompt into the transcript the Veo model
receives, submits it, waits for the operation to finish and saves the video.

Examples:
  veogen translate prompt.json
  veogen generate prompt.json -o out.mp4 --aspect-ratio 9:16
  veogen generate --text "A lighthouse at dusk, slow dolly in" --duration 6
  cat prompt.json | veogen generate -`,
	SilenceUsage: true,
}

var translateCmd = &cobra.Command{
	Use:   "translate <prompt.json|->",
	Short: "Print the transcript for a structured prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt.json|-]",
	Short: "Generate a video and write it to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a config file")

	generateCmd.Flags().StringVar(&textFlag, "text", "", "Plain text prompt, used when no prompt file is given or it renders empty")
	generateCmd.Flags().StringVarP(&outputFlag, "output", "o", "video.mp4", "Output file")
	generateCmd.Flags().StringVar(&aspectRatioFlag, "aspect-ratio", "", "Aspect ratio (16:9 or 9:16)")
	generateCmd.Flags().IntVar(&durationFlag, "duration", 0, "Duration in seconds (4, 6 or 8)")
	generateCmd.Flags().StringVar(&resolutionFlag, "resolution", "", "Resolution (720p or 1080p)")
	generateCmd.Flags().StringVar(&negativePromptFlag, "negative-prompt", "", "Content to avoid")
	generateCmd.Flags().DurationVar(&deadlineFlag, "deadline", 0, "Maximum time to wait for the video (default from config)")

	rootCmd.AddCommand(translateCmd, generateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func runTranslate(cmd *cobra.Command, args []string) error {
	doc, err := readPrompt(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	text := prompt.Translate(doc)
	if text == "" {
		return errors.New("prompt has no translatable content")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var doc prompt.Document
	if len(args) == 1 {
		var err error
		if doc, err = readPrompt(cmd.InOrStdin(), args[0]); err != nil {
			return err
		}
	}
	if doc.IsEmpty() && textFlag == "" {
		return errors.New("a prompt file or --text is required")
	}

	cfg, err := app.LoadConfig(configFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	orchestrator, err := app.NewPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}

	job := veo.Job{
		Prompt: doc,
		Text:   textFlag,
		Options: veo.Options{
			AspectRatio:     aspectRatioFlag,
			DurationSeconds: durationFlag,
			Resolution:      resolutionFlag,
			NegativePrompt:  negativePromptFlag,
		},
		Observe: func(e veo.Event) {
			switch e.Kind {
			case veo.EventSubmitted:
				log.Info("operation submitted", "operation", e.Handle)
			case veo.EventStatus:
				log.Debug("operation status", "operation", e.Handle, "state", e.Status.State)
			case veo.EventDownloaded:
				log.Info("video downloaded", "operation", e.Handle, "bytes", e.Size)
			}
		},
	}

	data, err := orchestrator.Generate(ctx, job, deadline(cfg))
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputFlag, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputFlag, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", outputFlag, len(data))
	return nil
}

func deadline(cfg *config.Config) time.Duration {
	if deadlineFlag > 0 {
		return deadlineFlag
	}
	return cfg.Veo.Deadline
}

// readPrompt parses a prompt file, or stdin when path is "-".
func readPrompt(stdin io.Reader, path string) (prompt.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return prompt.Document{}, fmt.Errorf("read prompt: %w", err)
	}
	return prompt.Parse(data), nil
}
