// Package export renders journal entries as downloadable JSON or CSV files.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// byteOrderMark keeps spreadsheet tools from misreading UTF-8 text.
const byteOrderMark = "\uFEFF"

var csvHeader = []string{"Date", "Thing 1", "Thing 2", "Thing 3", "Tags"}

// File is a rendered export ready to be written or served.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type jsonEntry struct {
	Date   string    `json:"date"`
	Things [3]string `json:"things"`
	Tags   []string  `json:"tags"`
}

// ParseFormat accepts "json" or "csv" in any case.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// FileName returns three-good-things-<date>.<format> for the given day.
func FileName(format Format, today time.Time) string {
	return fmt.Sprintf("three-good-things-%s.%s", today.Format(models.EntryDateLayout), format)
}

// Render encodes entries in the requested format.
func Render(entries []models.Entry, format Format, today time.Time) (File, error) {
	switch format {
	case FormatJSON:
		data, err := JSON(entries)
		if err != nil {
			return File{}, err
		}
		return File{Name: FileName(format, today), ContentType: "application/json; charset=utf-8", Data: data}, nil
	case FormatCSV:
		return File{Name: FileName(format, today), ContentType: "text/csv; charset=utf-8", Data: []byte(CSV(entries))}, nil
	default:
		return File{}, fmt.Errorf("unsupported export format %q", format)
	}
}

// JSON returns an indented array of {date, things, tags}.
func JSON(entries []models.Entry) ([]byte, error) {
	formatted := make([]jsonEntry, 0, len(entries))
	for _, entry := range entries {
		tags := entry.Tags
		if tags == nil {
			tags = []string{}
		}
		formatted = append(formatted, jsonEntry{Date: entry.EntryDate, Things: entry.Things(), Tags: tags})
	}
	return json.MarshalIndent(formatted, "", "  ")
}

// CSV returns a BOM-prefixed CSV document with one row per entry. Tags are
// joined with commas into a single field.
func CSV(entries []models.Entry) string {
	var b strings.Builder
	b.WriteString(byteOrderMark)
	b.WriteString(strings.Join(csvHeader, ","))
	for _, entry := range entries {
		row := []string{
			escapeCSV(entry.EntryDate),
			escapeCSV(entry.ThingOne),
			escapeCSV(entry.ThingTwo),
			escapeCSV(entry.ThingThree),
			escapeCSV(strings.Join(entry.Tags, ",")),
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ","))
	}
	return b.String()
}

// escapeCSV quotes a field only when it contains a comma, quote or newline.
func escapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
