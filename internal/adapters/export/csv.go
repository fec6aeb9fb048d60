// Package export renders matches and analyses for download and terminals.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/okian/rallylog/internal/domain/model"
)

const (
	// ContentTypeCSV is the media type served for CSV downloads.
	ContentTypeCSV = "text/csv; charset=utf-8"

	dateLayout = "2006-01-02"
	utf8BOM    = "\uFEFF"
)

var rallyColumns = []string{
	"Sequence",
	"Result",
	"Reason",
	"StartScoreSelf",
	"StartScoreOpponent",
	"EndScoreSelf",
	"EndScoreOpponent",
	"ServeScore",
	"TacticUsed",
	"Notes",
}

// WriteMatchCSV writes a match header block, a blank line and one row per rally.
// The output starts with a UTF-8 BOM so spreadsheet tools detect the encoding.
func WriteMatchCSV(w io.Writer, m model.Match, rallies []model.Rally) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)

	date := ""
	if m.MatchDate != nil {
		date = m.MatchDate.Format(dateLayout)
	}
	header := [][]string{
		{"Match", sanitize(m.Title)},
		{"Date", date},
		{"Opponent", sanitize(m.DisplayOpponent())},
	}
	if err := cw.WriteAll(header); err != nil {
		return fmt.Errorf("write match header: %w", err)
	}
	// csv.Writer skips empty records, so the separator goes straight to w.
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	if err := cw.Write(rallyColumns); err != nil {
		return fmt.Errorf("write columns: %w", err)
	}
	for _, r := range rallies {
		if err := cw.Write(rallyRow(r)); err != nil {
			return fmt.Errorf("write rally %d: %w", r.Sequence, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func rallyRow(r model.Rally) []string {
	serve := ""
	if r.ServeScore != nil {
		serve = strconv.Itoa(*r.ServeScore)
	}
	return []string{
		strconv.Itoa(r.Sequence),
		string(r.Result),
		sanitize(deref(r.PointReason)),
		strconv.Itoa(r.StartScoreSelf),
		strconv.Itoa(r.StartScoreOpponent),
		strconv.Itoa(r.EndScoreSelf),
		strconv.Itoa(r.EndScoreOpponent),
		serve,
		strconv.FormatBool(r.TacticUsed),
		sanitize(deref(r.Notes)),
	}
}

// Filename returns the attachment name for a match export.
func Filename(m model.Match) string {
	base := slug.Make(m.Title)
	if base == "" {
		base = m.ID
	}
	if m.MatchDate != nil {
		return fmt.Sprintf("match-%s-%s.csv", base, m.MatchDate.Format(dateLayout))
	}
	return fmt.Sprintf("match-%s.csv", base)
}

// sanitize neutralises cells that spreadsheets would evaluate as formulas.
func sanitize(field string) string {
	if field == "" {
		return field
	}
	if strings.ContainsRune("=+-@", rune(field[0])) {
		return "'" + field
	}
	return field
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// MatchFile renders a match as a CSV download.
func MatchFile(m model.Match, rallies []model.Rally) (File, error) {
	var buf bytes.Buffer
	if err := WriteMatchCSV(&buf, m, rallies); err != nil {
		return File{}, err
	}
	return File{Name: Filename(m), ContentType: ContentTypeCSV, Data: buf.Bytes()}, nil
}
