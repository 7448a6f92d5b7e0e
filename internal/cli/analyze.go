package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/townsquare/complaint_analyzer/configs"
	"github.com/townsquare/complaint_analyzer/internal/bootstrap"
	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/formatter"
	"github.com/townsquare/complaint_analyzer/internal/processor"
)

type analyzeOptions struct {
	title        string
	description  string
	imagePath    string
	outputFormat string
	provider     string
	noAI         bool
	requireImage bool
	timeout      time.Duration
	verbose      bool
}

// NewAnalyzeCmd returns the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify a civic complaint",
		Long: `Run one complaint through the analysis engine and print the result.

Examples:
  # Text only, keyword classification
  complaint-analyzer analyze -t "Overflowing bin" -d "Trash everywhere near the park" --no-ai

  # With a photo, using the configured provider
  complaint-analyzer analyze -t "Pothole" -d "Deep hole on Main St" -i pothole.jpg

  # Machine-readable output
  complaint-analyzer analyze -t "Street light out" -d "Dark corner" -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Complaint title (required)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Complaint description (required)")
	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "Path to a photo (jpeg, png, gif, webp)")
	cmd.Flags().StringVarP(&opts.outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Override AI_PROVIDER (gemini, anthropic, mistral, none)")
	cmd.Flags().BoolVar(&opts.noAI, "no-ai", false, "Skip the model and use keyword classification only")
	cmd.Flags().BoolVar(&opts.requireImage, "require-image", true, "Only call the model when a photo is attached")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Override PRIMARY_TIMEOUT (e.g. 20s)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show step logs")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	if !opts.verbose {
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	title := strings.TrimSpace(opts.title)
	description := strings.TrimSpace(opts.description)
	if title == "" || description == "" {
		return fmt.Errorf("--title and --description must not be blank")
	}

	req := domain.AnalysisRequest{Title: title, Description: description}
	if opts.imagePath != "" {
		image, err := loadImage(opts.imagePath)
		if err != nil {
			return err
		}
		req.Image = image
	}

	configs.LoadConfig()

	providerCfg := bootstrap.ProviderConfig()
	if opts.provider != "" {
		providerCfg.Provider = opts.provider
	}
	if opts.noAI {
		providerCfg.Provider = "none"
	}

	engineCfg := bootstrap.EngineConfig()
	if cmd.Flags().Changed("require-image") {
		engineCfg.RequireImage = opts.requireImage
	}
	if opts.timeout > 0 {
		engineCfg.PrimaryTimeout = opts.timeout
	}

	orchestrator, provider, err := bootstrap.NewOrchestrator(providerCfg, engineCfg)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = fmt.Sprintf(" Analyzing with %s...", provider)
	s.Start()

	reqCtx := common.NewRequestContext(title)
	ctx := common.WithRequestContext(cmd.Context(), reqCtx)
	started := time.Now()
	out := orchestrator.Run(ctx, req)

	s.Stop()

	report := formatter.Report{
		RequestID:  reqCtx.RequestID,
		Provider:   provider,
		DurationMs: time.Since(started).Milliseconds(),
		Result:     out.Result,
	}
	for _, state := range out.Path {
		report.Path = append(report.Path, string(state))
	}
	if out.PrimaryErr != nil {
		report.PrimaryError = out.PrimaryErr.Error()
		if opts.outputFormat == "human" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.YellowString("⚠️"), out.PrimaryErr)
		}
	}

	return formatter.DisplayResults(cmd.OutOrStdout(), report, opts.outputFormat)
}

func loadImage(path string) (*domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	contentType := processor.DetectContentType(data, "")
	if !processor.SupportedImageTypes[contentType] {
		return nil, fmt.Errorf("unsupported image type %s", contentType)
	}
	return &domain.Image{Data: data, ContentType: contentType}, nil
}
