// Package main drives the humanization pipeline and the detector ensemble
// from a terminal. Results are printed as JSON on stdout; logs go to stderr.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/serisow/humanizer/bootstrap"
	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/pipeline"
	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/services/detection_service"
)

// CLI flags
var (
	fileFlag         string
	noParaphraseFlag bool
	noEnhancedFlag   bool
	modelFlag        string
	thresholdFlag    float64
	verboseFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "humanizer-cli",
	Short: "Humanize AI-generated text and check it against AI detectors",
	Long: `humanizer-cli runs the same paraphrase, rewrite and cleaning pipeline as the
HTTP API, and scores text with the configured detector ensemble.

Text is taken from the arguments, from --file, or from stdin.

Examples:
  humanizer-cli humanize "Text produced by a language model."
  humanizer-cli detect --file essay.txt --threshold 0.8
  cat essay.txt | humanizer-cli check --model Vamsi/T5_Paraphrase_Paws
  humanizer-cli models`,
	SilenceUsage: true,
}

var humanizeCmd = &cobra.Command{
	Use:   "humanize [text]",
	Short: "Humanize text",
	RunE:  runHumanize,
}

var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Score text with the detector ensemble",
	RunE:  runDetect,
}

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Humanize text and compare detection before and after",
	RunE:  runCheck,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured models",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&fileFlag, "file", "f", "", "Read the text from a file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log pipeline progress to stderr")

	for _, cmd := range []*cobra.Command{humanizeCmd, checkCmd} {
		cmd.Flags().BoolVar(&noParaphraseFlag, "no-paraphrase", false, "Skip the paraphrasing step")
		cmd.Flags().BoolVar(&noEnhancedFlag, "no-enhanced", false, "Use the mild rewrite prompt")
		cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Paraphrase model (defaults to the first configured model)")
	}
	for _, cmd := range []*cobra.Command{detectCmd, checkCmd} {
		cmd.Flags().Float64VarP(&thresholdFlag, "threshold", "t", detection_service.DefaultThreshold, "AI probability above which text is flagged")
	}

	rootCmd.AddCommand(humanizeCmd, detectCmd, checkCmd, modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runHumanize(cmd *cobra.Command, args []string) error {
	services, text, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	humanized, stats, err := services.Humanizer.Humanize(cmd.Context(), text, options())
	if err != nil {
		return err
	}
	humanized, stats = pipeline.UsableText(text, humanized, stats)
	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"humanized_text": humanized,
		"statistics":     stats,
	})
}

func runDetect(cmd *cobra.Command, args []string) error {
	services, text, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	if err := checkThreshold(); err != nil {
		return err
	}

	result, err := services.Detector.DetectEnsemble(cmd.Context(), text)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"is_ai_generated": result.IsAI(thresholdFlag),
		"threshold_used":  thresholdFlag,
		"result":          result,
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	services, text, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	if err := checkThreshold(); err != nil {
		return err
	}

	ctx := cmd.Context()
	before, err := services.Detector.DetectEnsemble(ctx, text)
	if err != nil {
		return err
	}
	humanized, stats, err := services.Humanizer.Humanize(ctx, text, options())
	if err != nil {
		return err
	}
	humanized, stats = pipeline.UsableText(text, humanized, stats)
	after, err := services.Detector.DetectEnsemble(ctx, humanized)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"humanized_text":      humanized,
		"humanization_stats":  stats,
		"original_detection":  before,
		"humanized_detection": after,
		"improvement":         detection_service.Compare(before, after, thresholdFlag),
		"threshold_used":      thresholdFlag,
	})
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	services := bootstrap.Init(cfg, newLogger())
	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"paraphrase_models": cfg.ParaphraseModels,
		"current_model":     cfg.DefaultParaphraseModel(),
		"rewrite_model":     cfg.RewriteModel,
		"detector_models":   services.Detector.Models(),
		"step_types":        services.Registry.StepTypes(),
		"available":         services.Available,
	})
}

// prepare wires the services and resolves the input text.
func prepare(cmd *cobra.Command, args []string) (*bootstrap.Services, string, error) {
	services := bootstrap.Init(config.Load(), newLogger())
	if !services.Available {
		return nil, "", errors.New(services.Reason)
	}

	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return nil, "", err
	}
	return services, text, nil
}

func readText(stdin io.Reader, args []string) (string, error) {
	var text string
	switch {
	case fileFlag != "":
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", fileFlag, err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no text provided")
	}
	return text, nil
}

func options() pipeline_type.Options {
	return pipeline_type.Options{
		UseParaphrasing:      !noParaphraseFlag,
		UseEnhancedRewriting: !noEnhancedFlag,
		ParaphraseModel:      strings.TrimSpace(modelFlag),
	}
}

func checkThreshold() error {
	if thresholdFlag < 0 || thresholdFlag > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", thresholdFlag)
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
