package dataprocessing

import (
	"log/slog"
	"time"

	"dogwrangle/pkg/contracts/domain"
)

// Drop reasons, as reported in FilterReport and the rows-dropped metric
const (
	ReasonReshare      = "reshare"
	ReasonDuplicateRow = "duplicate_row"
	ReasonMissingImage = "missing_image"
	ReasonOffScale     = "off_scale_denominator"
	ReasonDuplicateKey = "duplicate_key"
)

// FilterReport counts the rows removed by each post-merge filter
type FilterReport struct {
	Input         int `json:"input"`
	Reshares      int `json:"reshares"`
	DuplicateRows int `json:"duplicate_rows"`
	MissingImages int `json:"missing_images"`
	OffScale      int `json:"off_scale_denominators"`
	DuplicateKeys int `json:"duplicate_keys"`
	Output        int `json:"output"`
}

// Dropped returns the drop counts keyed by reason
func (r FilterReport) Dropped() map[string]int {
	return map[string]int{
		ReasonReshare:      r.Reshares,
		ReasonDuplicateRow: r.DuplicateRows,
		ReasonMissingImage: r.MissingImages,
		ReasonOffScale:     r.OffScale,
		ReasonDuplicateKey: r.DuplicateKeys,
	}
}

// Filter runs the post-merge filters in order and returns the master table.
// Dropping rows is never an error.
func Filter(merged domain.Table[domain.MergedRecord], logger *slog.Logger) (domain.Table[domain.MasterRecord], FilterReport) {
	if logger == nil {
		logger = slog.Default()
	}
	report := FilterReport{Input: merged.Len()}

	master, reshares := ExcludeReshares(merged)
	report.Reshares = reshares
	master, report.DuplicateRows = DropDuplicateRows(master)
	master, report.MissingImages = DropMissingImages(master)
	master, report.OffScale = DropOffScaleRatings(master)
	master, report.DuplicateKeys = DropDuplicateKeys(master)
	report.Output = master.Len()

	logger.Info("Merged table filtered",
		slog.Int("input", report.Input),
		slog.Int("reshares", report.Reshares),
		slog.Int("duplicate_rows", report.DuplicateRows),
		slog.Int("missing_images", report.MissingImages),
		slog.Int("off_scale_denominators", report.OffScale),
		slog.Int("duplicate_keys", report.DuplicateKeys),
		slog.Int("output", report.Output))

	return master, report
}

// ExcludeReshares drops reshared posts and converts the rest to master rows,
// which no longer carry the reshare linkage
func ExcludeReshares(t domain.Table[domain.MergedRecord]) (domain.Table[domain.MasterRecord], int) {
	rows := make([]domain.MasterRecord, 0, t.Len())
	for _, rec := range t.Rows {
		if rec.IsReshare() {
			continue
		}
		rows = append(rows, rec.Master())
	}
	return domain.NewTable(t.Name, rows), t.Len() - len(rows)
}

// DropDuplicateRows keeps the first of every set of identical rows
func DropDuplicateRows(t domain.Table[domain.MasterRecord]) (domain.Table[domain.MasterRecord], int) {
	seen := make(map[rowKey]struct{}, t.Len())
	out := t.Filter(func(rec domain.MasterRecord) bool {
		key := newRowKey(rec)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	return out, t.Len() - out.Len()
}

// DropMissingImages removes rows without expanded_urls
func DropMissingImages(t domain.Table[domain.MasterRecord]) (domain.Table[domain.MasterRecord], int) {
	out := t.Filter(func(rec domain.MasterRecord) bool {
		return rec.ExpandedURLs != nil
	})
	return out, t.Len() - out.Len()
}

// DropOffScaleRatings removes rows whose denominator is still not 10
func DropOffScaleRatings(t domain.Table[domain.MasterRecord]) (domain.Table[domain.MasterRecord], int) {
	out := t.Filter(func(rec domain.MasterRecord) bool {
		return rec.RatingDenominator == 10
	})
	return out, t.Len() - out.Len()
}

// DropDuplicateKeys keeps the first row of every post_id
func DropDuplicateKeys(t domain.Table[domain.MasterRecord]) (domain.Table[domain.MasterRecord], int) {
	seen := make(map[int64]struct{}, t.Len())
	out := t.Filter(func(rec domain.MasterRecord) bool {
		if _, dup := seen[rec.PostID]; dup {
			return false
		}
		seen[rec.PostID] = struct{}{}
		return true
	})
	return out, t.Len() - out.Len()
}

type nullString struct {
	value string
	valid bool
}

func newNullString(s *string) nullString {
	if s == nil {
		return nullString{}
	}
	return nullString{value: *s, valid: true}
}

// rowKey is a comparable image of a master row. Pointer columns are replaced
// by their values so that equal rows produce equal keys.
type rowKey struct {
	row               domain.MasterRecord
	createdAt         int64
	inReplyToStatusID nullString
	inReplyToUserID   nullString
	expandedURLs      nullString
	name              nullString
}

func newRowKey(rec domain.MasterRecord) rowKey {
	key := rowKey{
		createdAt:         rec.CreatedAt.UnixNano(),
		inReplyToStatusID: newNullString(rec.InReplyToStatusID),
		inReplyToUserID:   newNullString(rec.InReplyToUserID),
		expandedURLs:      newNullString(rec.ExpandedURLs),
		name:              newNullString(rec.AuthorDisplayName),
	}
	rec.InReplyToStatusID = nil
	rec.InReplyToUserID = nil
	rec.ExpandedURLs = nil
	rec.AuthorDisplayName = nil
	rec.CreatedAt = time.Time{}
	key.row = rec
	return key
}
