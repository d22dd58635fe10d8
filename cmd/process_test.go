package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/converter"
	"github.com/annis-souames/edifact-generator/internal/validation"
)

func TestSummarize(t *testing.T) {
	results := []converter.Result{
		{
			FilePath:   "/in/acme_1.csv",
			OutputFile: "/out/ACME_1.edi",
			Success:    true,
			Findings: []*validation.ValidationError{{
				Severity: validation.SeverityWarning, Field: "Date", Message: "differs", InvoiceKey: "1", RowNumber: 3,
			}},
			Skipped: []converter.InvoiceFailure{{Key: "2", RowNumber: 5, Err: errors.New("bad date")}},
			Stats:   converter.ProcessingStats{RowsProcessed: 4, InvoicesCreated: 1, LineItemsCreated: 2, InvoicesSkipped: 1},
		},
		{FilePath: "/in/broken.csv", Error: errors.New("boom")},
		{},
	}

	summary, entries := summarize(results)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 1, summary.SuccessfulFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 1, summary.SkippedInvoices)
	require.Len(t, summary.FailedFilesList, 1)
	assert.Equal(t, "broken.csv", summary.FailedFilesList[0].InputFile)

	require.Len(t, entries, 3)
	types := []string{entries[0].ErrorType, entries[1].ErrorType, entries[2].ErrorType}
	assert.Equal(t, []string{"validation warning", "invoice skipped", "processing"}, types)
	assert.Equal(t, "2", entries[1].InvoiceKey)
}

func TestSelectPartner(t *testing.T) {
	acme := &config.PartnerConfig{PartnerCode: "ACME", FileMatchingPatterns: []string{"acme_*.csv"}}
	partners := map[string]*config.PartnerConfig{"ACME": acme}

	p, err := selectPartner(partners, "", "/in/acme_0324.csv")
	require.NoError(t, err)
	assert.Same(t, acme, p)

	p, err = selectPartner(partners, "", "/in/other.csv")
	require.NoError(t, err)
	assert.Equal(t, "default", p.PartnerCode)

	p, err = selectPartner(partners, "ACME", "/in/other.csv")
	require.NoError(t, err)
	assert.Same(t, acme, p)

	_, err = selectPartner(partners, "NOPE", "x.csv")
	assert.Error(t, err)
}
