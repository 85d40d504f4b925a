package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"cvsnap/internal/ai"
	"cvsnap/internal/common"
	"cvsnap/internal/config"
	"cvsnap/internal/docparse"
	"cvsnap/internal/errors"
	"cvsnap/internal/extract"
	"cvsnap/internal/graph"
	"cvsnap/internal/match"
	"cvsnap/internal/pipeline"
	"cvsnap/internal/utils"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-description-file] [resume-file-or-dir...]",
	Short: "Screen resumes against a job description",
	Long: `Screen one or more resumes against a job description and produce a
ranked match report.

The job description is read from the first argument. The remaining
arguments are resume files (txt, md, pdf, docx) or directories containing
them. The report includes per-candidate scores, matched and missing
skills, and a plain-language explanation.`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	fileProcessor := common.NewFileProcessor(logger)

	jobText, err := fileProcessor.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	resumes, err := collectResumes(fileProcessor, args[1:])
	if err != nil {
		return err
	}

	logger.Info("Starting resume screening",
		"job_file", args[0],
		"resumes", len(resumes),
		"output_format", analyzeConfig.OutputFormat)

	analyzer, cleanup, err := buildAnalyzer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := analyzer.AnalyzeJob(cmd.Context(), jobText, resumes)
	if err != nil {
		return fmt.Errorf("failed to analyze resumes: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(report, analyzeConfig); err != nil {
		return err
	}

	logger.Info("Resume screening completed",
		"job_id", report.JobID,
		"ranked", len(report.RankedCandidates),
		"errors", len(report.ProcessingErrors))
	return nil
}

// collectResumes expands the resume arguments, descending one level into
// directories, and reads each file's raw bytes
func collectResumes(fileProcessor *common.FileProcessor, paths []string) ([]pipeline.ResumeFile, error) {
	var filenames []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := utils.ListResumeFiles(path)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				return nil, fmt.Errorf("no resume files found in directory %s", path)
			}
			filenames = append(filenames, found...)
			continue
		}
		filenames = append(filenames, path)
	}

	var resumes []pipeline.ResumeFile
	for _, filename := range filenames {
		data, err := fileProcessor.ReadBinaryFile(filename)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, pipeline.ResumeFile{
			Filename: filename,
			MIMEType: docparse.DetectMIMEType(filename),
			Data:     data,
		})
	}
	return resumes, nil
}

// buildAnalyzer wires the oracle services, graph store and scorer for a
// one-shot CLI run. The returned cleanup closes the graph backend.
func buildAnalyzer(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*pipeline.Analyzer, func(), error) {
	requirementsConfig := cfg.GetRequirementsConfig()
	requirementsService, err := ai.NewService(&requirementsConfig, "Requirements", logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create requirements service: %w", err)
	}

	candidateConfig := cfg.GetCandidateConfig()
	candidateService, err := ai.NewService(&candidateConfig, "Candidate", logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create candidate service: %w", err)
	}

	store, err := graph.NewStore(ctx, cfg.Graph, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graph store: %w", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		closeStore(store, logger)
		return nil, nil, fmt.Errorf("failed to ensure graph indexes: %w", err)
	}

	extractor := extract.NewExtractor(requirementsService.Oracle, candidateService.Oracle, logger)
	builder := graph.NewBuilder(store, cfg.Graph, logger)
	analyzer := pipeline.NewAnalyzer(extractor, builder, match.NewScorer(match.Lexical{}), cfg.Pipeline, logger)

	cleanup := func() { closeStore(store, logger) }
	return analyzer, cleanup, nil
}

func closeStore(store graph.Store, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.Warn("Failed to close graph store", "error", err)
	}
}
