package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"reputation-service/internal/models"
)

// column aliases, matched case-insensitively. The first present alias wins.
var columnAliases = map[string][]string{
	"id":              {"id"},
	"kind":            {"kind", "type"},
	"parent_id":       {"parent_id", "parentid"},
	"original_text":   {"original_text", "text", "comment", "transcript_te", "summary_te", "title"},
	"translated_text": {"translated_text", "comment_en", "transcript_en", "summary_en"},
	"language":        {"language", "lang"},
	"timestamp":       {"timestamp", "publishedat", "published_at", "date", "uploaddate", "upload_date"},
	"views":           {"views", "viewcount"},
	"likes":           {"likes", "likecount"},
	"comments":        {"comments", "replies", "commentcount", "commentcount_api", "replycount"},
	"favorites":       {"favorites", "favoritecount"},
}

type columns struct {
	index map[string]int
	// defaultKind applies when the file has no kind column.
	defaultKind string
}

// mapHeader resolves aliases. Channel exports identify comments by
// CommentID with the owning VideoID as parent, and videos by VideoID.
func mapHeader(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	cols := columns{index: make(map[string]int), defaultKind: models.KindVideo.String()}
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				cols.index[field] = i
				break
			}
		}
	}

	if _, ok := cols.index["id"]; !ok {
		if i, ok := pos["commentid"]; ok {
			cols.index["id"] = i
			cols.defaultKind = models.KindComment.String()
			if v, ok := pos["videoid"]; ok {
				if _, has := cols.index["parent_id"]; !has {
					cols.index["parent_id"] = v
				}
			}
		} else if i, ok := pos["videoid"]; ok {
			cols.index["id"] = i
		}
	}

	if _, ok := cols.index["id"]; !ok {
		return cols, fmt.Errorf("no id column in header %v", header)
	}
	return cols, nil
}

func (c columns) get(row []string, field string) string {
	i, ok := c.index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadCSV reads items from a CSV file with a header row. Rows that fail
// validation are listed in the report. The error is non-nil only when
// the input cannot be read as CSV at all.
func ReadCSV(r io.Reader) ([]*models.ContentItem, Report, error) {
	rep := Report{Rejected: []*models.MalformedRecordError{}}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, rep, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, rep, err
	}

	v := NewValidator()
	var items []*models.ContentItem
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rep.Rows++
				rep.Rejected = append(rep.Rejected, &models.MalformedRecordError{
					Line: perr.StartLine, Field: "row", Reason: perr.Err.Error(),
				})
				continue
			}
			return items, rep, fmt.Errorf("failed to read CSV: %w", err)
		}
		rep.Rows++
		line, _ := reader.FieldPos(0)

		rec, bad := cols.record(line, row)
		if bad != nil {
			rep.Rejected = append(rep.Rejected, bad)
			continue
		}
		item, bad := v.Item(line, rec)
		if bad != nil {
			rep.Rejected = append(rep.Rejected, bad)
			continue
		}
		items = append(items, item)
	}

	rep.Accepted = len(items)
	return items, rep, nil
}

func (c columns) record(line int, row []string) (Record, *models.MalformedRecordError) {
	rec := Record{
		ID:             c.get(row, "id"),
		Kind:           c.get(row, "kind"),
		ParentID:       c.get(row, "parent_id"),
		OriginalText:   c.get(row, "original_text"),
		TranslatedText: c.get(row, "translated_text"),
		Language:       c.get(row, "language"),
		Timestamp:      c.get(row, "timestamp"),
	}
	if strings.TrimSpace(rec.Kind) == "" {
		rec.Kind = c.defaultKind
	}

	counts := []struct {
		field string
		dst   *int
	}{
		{"views", &rec.Views},
		{"likes", &rec.Likes},
		{"comments", &rec.Comments},
		{"favorites", &rec.Favorites},
	}
	for _, f := range counts {
		n, err := parseCount(c.get(row, f.field))
		if err != nil {
			return rec, &models.MalformedRecordError{
				Line: line, ID: strings.TrimSpace(rec.ID), Field: f.field, Reason: err.Error(),
			}
		}
		*f.dst = n
	}
	return rec, nil
}

// ReadJSON reads a JSON array of records.
func ReadJSON(r io.Reader) ([]*models.ContentItem, Report, error) {
	rep := Report{Rejected: []*models.MalformedRecordError{}}

	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, rep, fmt.Errorf("failed to decode JSON records: %w", err)
	}

	v := NewValidator()
	items := make([]*models.ContentItem, 0, len(recs))
	for i, rec := range recs {
		rep.Rows++
		item, bad := v.Item(i+1, rec)
		if bad != nil {
			rep.Rejected = append(rep.Rejected, bad)
			continue
		}
		items = append(items, item)
	}
	rep.Accepted = len(items)
	return items, rep, nil
}

// LoadFile reads a .csv or .json file.
func LoadFile(path string) ([]*models.ContentItem, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	}
	return nil, Report{}, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
}
