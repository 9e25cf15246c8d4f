package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat converts a --format flag value to an OutputFormat. An
// empty value selects FormatText.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (supported: text, json, csv)", s)
	}
}

// Rows is tabular command output: a header row followed by data rows.
// The text formatter renders it as an aligned table, the CSV formatter
// as comma-separated records.
type Rows struct {
	Headers []string
	Records [][]string
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text. Rows values become an
// aligned table; everything else is printed with %v.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	rows, ok := asRows(data)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(rows.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(rows.Headers, "\t"))
	}
	for _, record := range rows.Records {
		fmt.Fprintln(tw, strings.Join(record, "\t"))
	}
	return tw.Flush()
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats tabular output as CSV.
type CSVFormatter struct{}

// FormatTo writes data to writer in CSV format. Data must be a Rows
// value.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	rows, ok := asRows(data)
	if !ok {
		return fmt.Errorf("csv format requires tabular data, got %T", data)
	}

	csvWriter := csv.NewWriter(w)
	if len(rows.Headers) > 0 {
		if err := csvWriter.Write(rows.Headers); err != nil {
			return err
		}
	}
	for _, record := range rows.Records {
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

func asRows(data interface{}) (Rows, bool) {
	switch v := data.(type) {
	case Rows:
		return v, true
	case *Rows:
		return *v, true
	default:
		return Rows{}, false
	}
}
