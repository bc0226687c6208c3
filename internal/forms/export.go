package forms

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"
)

var csvHeader = []string{"submitted_at", "status", "ip_address", "user_agent"}

// ExportCSV writes every submission of formID as CSV. Columns after the
// fixed ones are the form's field labels in order of first appearance.
func (s *Service) ExportCSV(ctx context.Context, formID string, w io.Writer) error {
	if s.repo == nil {
		return ErrNotFound
	}
	records, err := s.repo.ListByForm(ctx, formID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNotFound
	}

	var names, labels []string
	seen := map[string]bool{}
	for _, r := range records {
		for _, v := range r.Data {
			if !seen[v.FieldName] {
				seen[v.FieldName] = true
				names = append(names, v.FieldName)
				labels = append(labels, v.FieldLabel)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, csvHeader...), escapeCells(labels)...)); err != nil {
		return err
	}

	for _, r := range records {
		byName := make(map[string]string, len(r.Data))
		for _, v := range r.Data {
			byName[v.FieldName] = v.Value
		}

		row := []string{
			r.SubmittedAt.UTC().Format(time.RFC3339),
			string(r.Status),
			r.IPAddress,
			r.UserAgent,
		}
		for _, name := range names {
			row = append(row, byName[name])
		}
		if err := cw.Write(escapeCells(row)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// escapeCells neutralises values a spreadsheet would evaluate as formulas.
func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c != "" && strings.ContainsRune("=+-@", rune(c[0])) {
			c = "'" + c
		}
		out[i] = c
	}
	return out
}
