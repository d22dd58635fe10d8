// =============================================================================
// EDIFACT Generator - Converter Module
// =============================================================================
//
// This module orchestrates the generation pipeline for a single input file,
// from source rows to a written EDIFACT interchange.
//
// CONVERSION PIPELINE:
//   1. Load the partner's mapping schema (XLSX template + field mappings)
//   2. Read the source (CSV, XLSX, or a YAML invoice document)
//   3. Apply transformation rules to every row
//   4. Group rows into invoices
//   5. Validate every invoice against the schema
//   6. Map each invoice to a document and build the INVOIC message
//   7. Serialize all messages into one interchange (or JSON)
//   8. Write the output file
//   9. Archive the processed files
//
// CONCURRENCY:
//   A Converter handles one file and shares nothing mutable with other
//   converters, so the process command runs several of them at once.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/document"
	"github.com/annis-souames/edifact-generator/internal/edifact/invoic"
	"github.com/annis-souames/edifact-generator/internal/validation"
	"github.com/annis-souames/edifact-generator/pkg/utils"
)

// ErrNoInvoices is returned when a file yields no invoice that could be
// built.
var ErrNoInvoices = errors.New("no invoice could be generated")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of processing a single file.
type Result struct {
	// FilePath is the processed input file.
	FilePath string

	// Partner is the code of the partner configuration used.
	Partner string

	// OutputFile is the generated interchange. Empty on failure and in dry
	// runs.
	OutputFile string

	// ArchivePath is where the input file was moved to.
	ArchivePath string

	// Success indicates whether an output was produced.
	Success bool

	// Error is the reason the file failed.
	Error error

	// Findings are the validation findings, warnings included.
	Findings []*validation.ValidationError

	// Skipped lists invoices left out of the output, with the reason.
	Skipped []InvoiceFailure

	Stats ProcessingStats
}

// InvoiceFailure records why an invoice was left out.
type InvoiceFailure struct {
	Key       string
	RowNumber int
	Err       error
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	RowsProcessed    int
	InvoicesCreated  int
	LineItemsCreated int
	InvoicesSkipped  int
	ValidationErrors int
	ProcessingTime   time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter generates the interchange for one input file.
type Converter struct {
	sourcePath string
	partner    *config.PartnerConfig
	mainConfig *config.MainConfig
	files      *utils.FileManager
	log        *zap.Logger
	dryRun     bool
	out        io.Writer
	now        func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithDryRun runs the pipeline without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithOutput writes the generated document to w instead of the output
// directory. Nothing is archived.
func WithOutput(w io.Writer) Option {
	return func(c *Converter) { c.out = w }
}

// WithFileManager replaces the file manager derived from the main config.
func WithFileManager(fm *utils.FileManager) Option {
	return func(c *Converter) { c.files = fm }
}

// WithClock sets the clock used for the interchange date and file names.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// New creates a converter for sourcePath.
func New(sourcePath string, partner *config.PartnerConfig, mainConfig *config.MainConfig, log *zap.Logger, opts ...Option) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Converter{
		sourcePath: sourcePath,
		partner:    partner,
		mainConfig: mainConfig,
		log:        log.With(zap.String("file", filepath.Base(sourcePath)), zap.String("partner", partner.PartnerCode)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.files == nil {
		c.files = utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
		c.files.UseTimestampSubdirs = mainConfig.ArchiveByDate
	}
	c.files.Now = c.now
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := c.now()
	result = Result{FilePath: c.sourcePath, Partner: c.partner.PartnerCode}
	defer func() { result.Stats.ProcessingTime = c.now().Sub(startTime) }()

	c.log.Info("processing file")

	// =========================================================================
	// STEPS 1-5: READ, TRANSFORM, GROUP, VALIDATE
	// =========================================================================

	source, err := c.load(ctx)
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats.RowsProcessed = source.rows
	result.Findings = source.findings
	for _, f := range source.findings {
		if f.Severity == validation.SeverityError {
			result.Stats.ValidationErrors++
			c.log.Warn("validation error", zap.String("invoice", f.InvoiceKey), zap.Int("row", f.RowNumber), zap.String("field", f.Field), zap.String("message", f.Message))
		} else {
			c.log.Debug("validation warning", zap.String("invoice", f.InvoiceKey), zap.Int("row", f.RowNumber), zap.String("field", f.Field), zap.String("message", f.Message))
		}
	}

	// =========================================================================
	// STEP 6: BUILD INVOIC MESSAGES
	// =========================================================================

	opts := c.buildOptions()
	invoices := make([]*invoic.Invoice, 0, len(source.docs))
	skipped := source.skipped
	for _, pending := range source.docs {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return result
		}
		inv, err := pending.doc.Build(opts)
		if err != nil {
			skipped = append(skipped, InvoiceFailure{Key: pending.key, RowNumber: pending.row, Err: err})
			continue
		}
		invoices = append(invoices, inv)
		result.Stats.LineItemsCreated += len(inv.Items())
	}

	result.Skipped = skipped
	result.Stats.InvoicesSkipped = len(skipped)
	for _, s := range skipped {
		c.log.Warn("invoice skipped", zap.String("invoice", s.Key), zap.Int("row", s.RowNumber), zap.Error(s.Err))
	}
	if len(skipped) > 0 && !c.mainConfig.ContinueOnError {
		var errs error
		for _, s := range skipped {
			errs = multierr.Append(errs, fmt.Errorf("invoice %q: %w", s.Key, s.Err))
		}
		result.Error = fmt.Errorf("%d invoice(s) failed: %w", len(skipped), errs)
		return result
	}
	if len(invoices) == 0 {
		result.Error = ErrNoInvoices
		return result
	}
	result.Stats.InvoicesCreated = len(invoices)
	c.log.Debug("built invoices", zap.Int("invoices", len(invoices)), zap.Int("items", result.Stats.LineItemsCreated))

	// =========================================================================
	// STEP 7: SERIALIZE
	// =========================================================================

	ic := Interchange(c.partner, c.now())
	if c.mainConfig.OutputFormat != config.FormatJSON && (ic.Sender.ID == "" || ic.Recipient.ID == "") {
		c.log.Warn("interchange sender or recipient is empty", zap.String("sender", ic.Sender.ID), zap.String("recipient", ic.Recipient.ID))
	}
	data, err := Render(invoices, c.mainConfig.OutputFormat, ic, WriteOptions(c.partner, c.mainConfig))
	if err != nil {
		result.Error = err
		return result
	}

	if c.dryRun {
		c.log.Info("dry run, output not written", zap.Int("invoices", len(invoices)), zap.Int("bytes", len(data)))
		result.Success = true
		return result
	}
	if c.out != nil {
		if _, err := c.out.Write(data); err != nil {
			result.Error = fmt.Errorf("failed to write output: %w", err)
			return result
		}
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 8: WRITE OUTPUT FILE
	// =========================================================================

	name := c.files.GenerateOutputFileName(c.mainConfig.OutputNameFormat, OutputExtension(c.mainConfig.OutputFormat), c.fileNameParams(invoices))
	outputPath, err := c.files.WriteOutputFile(name, data)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	c.log.Info("wrote interchange", zap.String("output", outputPath), zap.Int("invoices", len(invoices)))

	// =========================================================================
	// STEP 9: ARCHIVE FILES
	// =========================================================================

	if archived, err := c.files.ArchiveInputFile(c.sourcePath); err != nil {
		c.log.Warn("failed to archive input file", zap.Error(err))
	} else {
		result.ArchivePath = archived
	}
	if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		c.log.Warn("failed to archive output file", zap.Error(err))
	}

	result.Success = true
	return result
}

func (c *Converter) buildOptions() document.BuildOptions {
	return document.BuildOptions{
		DuplicateTaxAmount: c.mainConfig.Compat.DuplicateTrailerTaxAmount,
		Association:        c.partner.Interchange.Association,
	}
}

// fileNameParams are the partner specific placeholders of the output name.
func (c *Converter) fileNameParams(invoices []*invoic.Invoice) map[string]string {
	base := filepath.Base(c.sourcePath)
	params := map[string]string{
		"partner":  c.partner.PartnerCode,
		"original": strings.TrimSuffix(base, filepath.Ext(base)),
		"invoice":  "",
	}
	if number, ok := invoiceNumber(invoices[0]); ok {
		params["invoice"] = number
	}
	return params
}

func invoiceNumber(inv *invoic.Invoice) (string, bool) {
	segs, ok := inv.Get(invoic.KeyInvoiceNumber)
	if !ok || len(segs) == 0 {
		return "", false
	}
	return segs[0].Component(1, 0)
}
