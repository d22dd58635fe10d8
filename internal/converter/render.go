package converter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/edifact"
	"github.com/annis-souames/edifact-generator/internal/edifact/invoic"
	"github.com/annis-souames/edifact-generator/internal/ediwriter"
)

// Render composes every invoice and serializes the messages in format.
// EDIFACT output wraps all messages in one interchange; JSON output is the
// list of segment tuples per message.
func Render(invoices []*invoic.Invoice, format string, ic ediwriter.Interchange, opts ediwriter.Options) ([]byte, error) {
	messages := make([][]edifact.Segment, len(invoices))
	for i, inv := range invoices {
		messages[i] = inv.Compose()
	}

	switch format {
	case "", config.FormatEDIFACT:
		return ediwriter.Generate(ic, messages, opts)
	case config.FormatJSON:
		var buf bytes.Buffer
		if err := ediwriter.WriteJSON(&buf, messages, true); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Interchange returns the envelope of a partner prepared at now.
func Interchange(partner *config.PartnerConfig, now time.Time) ediwriter.Interchange {
	ic := partner.Interchange
	return ediwriter.Interchange{
		SyntaxIdentifier:     ic.SyntaxIdentifier,
		SyntaxVersion:        ic.SyntaxVersion,
		Sender:               ediwriter.Party{ID: ic.SenderID, Qualifier: ic.SenderQualifier},
		Recipient:            ediwriter.Party{ID: ic.RecipientID, Qualifier: ic.RecipientQualifier},
		Prepared:             now,
		ApplicationReference: ic.ApplicationReference,
		Test:                 ic.TestIndicator,
	}
}

// WriteOptions derives the serializer options.
func WriteOptions(partner *config.PartnerConfig, mainConfig *config.MainConfig) ediwriter.Options {
	opts := ediwriter.DefaultOptions()
	opts.Newline = mainConfig.Newline
	if partner.Interchange.SyntaxIdentifier != "" {
		opts.SyntaxIdentifier = partner.Interchange.SyntaxIdentifier
	}
	return opts
}

// OutputExtension is the file extension for format.
func OutputExtension(format string) string {
	if format == config.FormatJSON {
		return ".json"
	}
	return ".edi"
}
