// =============================================================================
// EDIFACT Generator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the generation pipeline
// for every input file.
//
// COMMAND USAGE:
//   edigen process [flags]
//
// FLAGS:
//   --dry-run     : Run the pipeline without writing or archiving anything
//   --file        : Process a single file instead of the input directory
//   --partner     : Only process files of this partner (or force it for --file)
//
// PROCESSING PIPELINE:
//   1. Load the partner configurations
//   2. Discover input files (CSV, XLSX, YAML)
//   3. Match each file to a partner
//   4. Run one converter per file, at most max_concurrency at once
//   5. Write the error log and the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/converter"
	"github.com/annis-souames/edifact-generator/pkg/utils"
)

// inputExtensions are the source types the converter understands.
var inputExtensions = []string{".csv", ".txt", ".xlsx", ".yaml", ".yml"}

var (
	dryRun      bool
	filePath    string
	partnerCode string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate INVOIC interchanges for all input files",
	Long: `The process command scans the input directory for invoice sources,
matches them to a partner configuration and writes one EDIFACT interchange per
file to the output directory.

Files are processed concurrently. With continue_on_error (the default) a
failing file or invoice does not stop the others.

On successful processing:
  - The interchange is placed in the output directory and archived
  - The source file is moved to the input archive

On error:
  - An error log is written to the output directory
  - The source file remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runProcess(ctx)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without writing output files or archiving inputs")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process only this file")
	processCmd.Flags().StringVar(&partnerCode, "partner", "", "Only process files of this partner code")
}

// job is one input file with its partner.
type job struct {
	path    string
	partner *config.PartnerConfig
}

func runProcess(ctx context.Context) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD PARTNERS
	// =========================================================================

	partners, err := loadPartners()
	if err != nil {
		return err
	}
	logger.Info("loaded partner configurations", zap.Int("partners", len(partners)))

	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEPS 2-3: DISCOVER AND MATCH FILES
	// =========================================================================

	jobs, err := collectJobs(fm, partners)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Info("no input files found", zap.String("dir", mainConfig.InputDir))
		return nil
	}
	logger.Info("processing files", zap.Int("files", len(jobs)), zap.Bool("dry_run", dryRun))

	// =========================================================================
	// STEP 4: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := make([]converter.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mainConfig.MaxConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = converter.New(j.path, j.partner, mainConfig, logger, converter.WithDryRun(dryRun)).Run(gctx)
			if results[i].Error != nil && !mainConfig.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(j.path), results[i].Error)
			}
			return nil
		})
	}
	stopErr := g.Wait()

	// =========================================================================
	// STEP 5: REPORT
	// =========================================================================

	summary, entries := summarize(results)
	summary.StartTime = startTime
	summary.EndTime = time.Now()

	var errs error
	for _, r := range results {
		if r.FilePath == "" {
			continue
		}
		if r.Success {
			logger.Info("file processed", zap.String("file", filepath.Base(r.FilePath)), zap.String("output", r.OutputFile),
				zap.Int("invoices", r.Stats.InvoicesCreated), zap.Int("skipped", r.Stats.InvoicesSkipped), zap.Duration("took", r.Stats.ProcessingTime))
		} else {
			logger.Error("file failed", zap.String("file", filepath.Base(r.FilePath)), zap.Error(r.Error))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(r.FilePath), r.Error))
		}
	}

	if !dryRun {
		if path, err := utils.WriteErrorLog(entries, mainConfig.OutputDir); err != nil {
			logger.Warn("failed to write error log", zap.Error(err))
		} else if path != "" {
			logger.Info("wrote error log", zap.String("path", path))
		}
		if path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
			logger.Warn("failed to write summary", zap.Error(err))
		} else {
			logger.Debug("wrote summary", zap.String("path", path))
		}
	}

	fmt.Println("=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Failed:          %d\n", summary.FailedFiles)
	fmt.Printf("Invoices:        %d\n", summary.TotalInvoices)
	fmt.Printf("Skipped:         %d\n", summary.SkippedInvoices)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime).Round(time.Millisecond))

	if stopErr != nil {
		return stopErr
	}
	return errs
}

// collectJobs lists the files to process and their partners.
func collectJobs(fm *utils.FileManager, partners map[string]*config.PartnerConfig) ([]job, error) {
	if filePath != "" {
		partner, err := selectPartner(partners, partnerCode, filePath)
		if err != nil {
			return nil, err
		}
		return []job{{path: filePath, partner: partner}}, nil
	}
	if partnerCode != "" {
		if _, ok := partners[partnerCode]; !ok {
			return nil, fmt.Errorf("unknown partner %q", partnerCode)
		}
	}

	files, err := fm.DiscoverInputFiles(false, inputExtensions...)
	if err != nil {
		return nil, err
	}
	var jobs []job
	for _, f := range files {
		partner, err := selectPartner(partners, "", f)
		if err != nil {
			return nil, err
		}
		if partnerCode != "" && partner.PartnerCode != partnerCode {
			logger.Debug("skipping file of other partner", zap.String("file", filepath.Base(f)), zap.String("partner", partner.PartnerCode))
			continue
		}
		jobs = append(jobs, job{path: f, partner: partner})
	}
	return jobs, nil
}

// summarize turns converter results into the summary and error log entries.
// Results of files that never started are ignored.
func summarize(results []converter.Result) (utils.ProcessingSummary, []utils.ErrorLogEntry) {
	var (
		summary utils.ProcessingSummary
		entries []utils.ErrorLogEntry
	)
	now := time.Now()
	for _, r := range results {
		if r.FilePath == "" {
			continue
		}
		name := filepath.Base(r.FilePath)
		summary.TotalFiles++
		summary.TotalRows += r.Stats.RowsProcessed
		summary.TotalInvoices += r.Stats.InvoicesCreated
		summary.TotalLineItems += r.Stats.LineItemsCreated
		summary.SkippedInvoices += r.Stats.InvoicesSkipped
		summary.ValidationErrors += r.Stats.ValidationErrors

		if r.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   name,
				OutputFile:  r.OutputFile,
				ArchivePath: r.ArchivePath,
				Rows:        r.Stats.RowsProcessed,
				Invoices:    r.Stats.InvoicesCreated,
				LineItems:   r.Stats.LineItemsCreated,
				ProcessTime: r.Stats.ProcessingTime,
			})
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: r.Error.Error(),
				ErrorType:    "processing",
			})
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    now,
				FileName:     name,
				ErrorType:    "processing",
				ErrorMessage: r.Error.Error(),
			})
		}

		for _, f := range r.Findings {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    now,
				FileName:     name,
				ErrorType:    "validation " + f.Severity,
				ErrorMessage: f.Message,
				RowNumber:    f.RowNumber,
				FieldName:    f.Field,
				FieldValue:   f.Value,
				InvoiceKey:   f.InvoiceKey,
			})
		}
		for _, s := range r.Skipped {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    now,
				FileName:     name,
				ErrorType:    "invoice skipped",
				ErrorMessage: s.Err.Error(),
				RowNumber:    s.RowNumber,
				InvoiceKey:   s.Key,
			})
		}
	}
	return summary, entries
}
