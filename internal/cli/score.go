package cli

import (
	"context"
	"fmt"

	"resumetrack/internal/ai"
	"resumetrack/internal/common"
	"resumetrack/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Score a resume against a specific job description using AI.
The command takes two arguments: the path to your resume file and the path
to the job description file. Both files should be in plain text format.
The output includes an ATS-style score from 0 to 100, the detected job
title, and categorized improvement suggestions.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for the score operation
	scoreAIConfig := cfg.GetScoreConfig()
	aiService, err := ai.NewService(&scoreAIConfig, "score", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	createInput := func(contents []string) (types.ScoreResumeInput, error) {
		if len(contents) != 2 {
			return types.ScoreResumeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.ScoreResumeInput{
			ResumeText:     contents[0],
			JobDescription: contents[1],
		}, nil
	}

	logDetails := func(input types.ScoreResumeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	scoreOperation := func(ctx context.Context, input types.ScoreResumeInput) (types.ScoreResumeOutput, *ai.TokenUsage, error) {
		return aiService.Provider.ScoreResume(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
