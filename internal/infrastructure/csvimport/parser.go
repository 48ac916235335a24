package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

// DefaultMaxFileSize caps an uploaded CSV
const DefaultMaxFileSize = 10 << 20

// CSVParser reads a CSV file with a header row into header-keyed rows
type CSVParser struct {
	delimiter  rune
	trimSpace  bool
	headerMap  map[string]int
	headers    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
	encoding   string
	lower      cases.Caser
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter forces the field delimiter instead of detecting it from the header
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

// NewCSVParser creates a parser from r. Spreadsheet exports that are not valid
// UTF-8 are decoded as Windows-1252, a UTF-8 BOM is dropped, and the delimiter
// is detected from the header line (comma or semicolon) unless forced.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		trimSpace: true,
		headerMap: make(map[string]int),
		encoding:  "utf-8",
		lower:     cases.Lower(language.Und),
	}
	for _, opt := range opts {
		opt(parser)
	}

	data, err := io.ReadAll(io.LimitReader(r, DefaultMaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > DefaultMaxFileSize {
		return nil, ErrFileTooLarge
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
		data = decoded
		parser.encoding = "windows-1252"
	}

	if parser.delimiter == 0 {
		parser.delimiter = detectDelimiter(data)
	}

	parser.reader = csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = parser.trimSpace
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// detectDelimiter picks semicolon when the header line has more semicolons than commas
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// Encoding reports the detected source encoding
func (p *CSVParser) Encoding() string {
	return p.encoding
}

// ParseHeader reads the header row. Header names are trimmed and lower-cased.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for i, h := range record {
		header := p.lower.String(strings.TrimSpace(h))
		p.headers = append(p.headers, header)
		if header != "" {
			p.headerMap[header] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}

	p.currentRow, _ = p.reader.FieldPos(0)
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// ValidateHeaders returns the required headers that are missing
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row represents a parsed CSV row with its line number
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetOrDefault returns the value for a column, or def when empty
func (r *Row) GetOrDefault(header, def string) string {
	if val := r.Data[header]; val != "" {
		return val
	}
	return def
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. LineNumber is the line in the file, the header being line 1.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		line := p.currentRow + 1
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			line = parseErr.StartLine
		}
		p.currentRow = line
		return nil, NewRowError(line, "", ErrCodeImportMalformedRow, err.Error())
	}
	p.currentRow, _ = p.reader.FieldPos(0)
	p.totalRows++

	row := &Row{
		LineNumber: p.currentRow,
		Data:       make(map[string]string, len(p.headerMap)),
	}
	for header, i := range p.headerMap {
		if i < len(record) {
			value := record[i]
			if p.trimSpace {
				value = strings.TrimSpace(value)
			}
			row.Data[header] = value
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank lines. Malformed
// rows are collected into errs instead of aborting the read.
func (p *CSVParser) ReadAllRows(errs *ErrorCollection) []*Row {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			if rowErr, ok := err.(RowError); ok {
				errs.Add(rowErr)
				continue
			}
			errs.Add(NewRowError(p.currentRow, "", ErrCodeImportCSVParsing, err.Error()))
			continue
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// TotalRows returns the total number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}
