// =============================================================================
// EDIFACT Generator - CSV Parser Module
// =============================================================================
//
// This module reads invoice line exports in CSV form. One data row is one
// invoice line; rows are later grouped into invoices by the converter.
//
// SUPPORTED LAYOUTS:
//   - any single-character delimiter (",", ";", "|", tab)
//   - multi-row headers, joined column-wise with a space
//   - metadata rows between the header and the data (data_start_row)
//   - legacy encodings (ISO-8859-1, ISO-8859-15, Windows-1252) decoded to
//     UTF-8 while reading
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/types"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData holds a parsed CSV file.
type CSVData struct {
	// Headers are the column headers in file order.
	Headers []string

	// Rows are the non-empty data rows.
	Rows []types.Row

	// SourceFile is the parsed file path.
	SourceFile string
}

// RowCount returns the number of data rows.
func (d *CSVData) RowCount() int { return len(d.Rows) }

// =============================================================================
// PARSING FUNCTIONS
// =============================================================================

// Parse reads the CSV file at filePath.
//
// PARAMETERS:
//   - filePath: the CSV file.
//   - settings: delimiter, header rows, data start row and encoding.
//
// RETURNS:
//   - The parsed data with one types.Row per non-empty data line.
//   - An error if the file cannot be read or decoded.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader reads CSV data from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	decoded, err := decodingReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(bufio.NewReader(decoded))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	return &CSVData{
		Headers: headers,
		Rows:    extractDataRows(allRows, headers, settings),
	}, nil
}

// decodingReader wraps r so that it yields UTF-8.
func decodingReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		// Strips a leading byte order mark.
		return unicode.UTF8BOM, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-15", "LATIN9", "LATIN-9":
		return charmap.ISO8859_15, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "ISO-8859-2", "LATIN2", "LATIN-2":
		return charmap.ISO8859_2, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// configureReader applies the delimiter and quoting settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}
	if len(settings.Comment) > 0 {
		reader.Comment = rune(settings.Comment[0])
	}

	// Rows may have fewer columns than the header.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// extractHeaders builds the header list, joining multi-row headers.
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	if settings.HeaderRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}
	if len(allRows) < settings.HeaderRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}
	if settings.HeaderRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < settings.HeaderRows; i++ {
		maxCols = max(maxCols, len(allRows[i]))
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < settings.HeaderRows; row++ {
			if col < len(allRows[row]) {
				if value := strings.TrimSpace(allRows[row][col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}
	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names empty ones Column_N.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// extractDataRows converts raw records into rows, skipping empty lines.
func extractDataRows(allRows [][]string, headers []string, settings config.CSVSettings) []types.Row {
	startIndex := settings.DataStartRow - 1
	if startIndex < settings.HeaderRows {
		startIndex = settings.HeaderRows
	}
	if startIndex >= len(allRows) {
		return []types.Row{}
	}

	rows := make([]types.Row, 0, len(allRows)-startIndex)
	for rowIndex := startIndex; rowIndex < len(allRows); rowIndex++ {
		record := allRows[rowIndex]
		if isRowEmpty(record) {
			continue
		}
		rows = append(rows, types.Row{Number: rowIndex + 1, Fields: toFields(headers, record)})
	}
	return rows
}

func toFields(headers, record []string) map[string]string {
	fields := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(record) {
			fields[header] = strings.TrimSpace(record[i])
		} else {
			fields[header] = ""
		}
	}
	return fields
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads rows one at a time for large exports.
type StreamingParser struct {
	file       *os.File
	reader     *csv.Reader
	headers    []string
	currentRow types.Row
	rowNumber  int
	err        error
	settings   config.CSVSettings
}

// NewStreamingParser opens filePath and reads its headers.
func NewStreamingParser(filePath string, settings config.CSVSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	decoded, err := decodingReader(file, settings.Encoding)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader := csv.NewReader(bufio.NewReader(decoded))
	configureReader(reader, settings)

	parser := &StreamingParser{file: file, reader: reader, settings: settings}
	if err := parser.readHeaders(); err != nil {
		file.Close()
		return nil, err
	}
	if err := parser.skipToDataStart(); err != nil {
		file.Close()
		return nil, err
	}
	return parser, nil
}

func (p *StreamingParser) readHeaders() error {
	headerRows := make([][]string, 0, p.settings.HeaderRows)
	for i := 0; i < p.settings.HeaderRows; i++ {
		row, err := p.reader.Read()
		if err == io.EOF {
			return fmt.Errorf("unexpected end of file while reading headers")
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", i+1, err)
		}
		headerRows = append(headerRows, row)
		p.rowNumber++
	}

	headers, err := extractHeaders(headerRows, p.settings)
	if err != nil {
		return err
	}
	p.headers = headers
	return nil
}

func (p *StreamingParser) skipToDataStart() error {
	targetRow := max(p.settings.DataStartRow, p.settings.HeaderRows+1)
	for p.rowNumber < targetRow-1 {
		if _, err := p.reader.Read(); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("error skipping to data start: %w", err)
		}
		p.rowNumber++
	}
	return nil
}

// Next advances to the next non-empty row.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		record, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}
		p.rowNumber++
		if isRowEmpty(record) {
			continue
		}
		p.currentRow = types.Row{Number: p.rowNumber, Fields: toFields(p.headers, record)}
		return true
	}
	return false
}

// Row returns the current row.
func (p *StreamingParser) Row() types.Row { return p.currentRow }

// Headers returns the column headers.
func (p *StreamingParser) Headers() []string { return p.headers }

// Err returns the first read error.
func (p *StreamingParser) Err() error { return p.err }

// Close closes the underlying file.
func (p *StreamingParser) Close() error { return p.file.Close() }

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetUniqueValues returns the distinct values of header in first-occurrence
// order.
func GetUniqueValues(data *CSVData, header string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, row := range data.Rows {
		value := row.Get(header)
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}
	return unique
}
