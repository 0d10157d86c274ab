package exporter

import (
	"fmt"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/pkg/contracts/domain"
)

// VerifyReport describes a persisted master file checked against memory
type VerifyReport struct {
	Path        string  `json:"path"`
	Expected    int     `json:"expected_rows"`
	Actual      int     `json:"actual_rows"`
	MissingKeys []int64 `json:"missing_keys,omitempty"`
	ExtraKeys   []int64 `json:"extra_keys,omitempty"`
}

// OK reports whether the file matches the in-memory table
func (r VerifyReport) OK() bool {
	return r.Expected == r.Actual && len(r.MissingKeys) == 0 && len(r.ExtraKeys) == 0
}

// Verify re-reads the master CSV at path and compares its row count and key
// set with expected. A mismatch is a VALIDATION error carrying the report.
func Verify(path string, expected domain.Table[domain.MasterRecord]) (*VerifyReport, error) {
	persisted, err := ReadMaster(path)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Path: path, Expected: expected.Len(), Actual: persisted.Len()}

	want := keySet(expected)
	got := keySet(persisted)
	for _, rec := range expected.Rows {
		if _, ok := got[rec.PostID]; !ok {
			report.MissingKeys = append(report.MissingKeys, rec.PostID)
		}
	}
	for _, rec := range persisted.Rows {
		if _, ok := want[rec.PostID]; !ok {
			report.ExtraKeys = append(report.ExtraKeys, rec.PostID)
		}
	}

	if !report.OK() {
		return report, apperrors.NewValidationError(
			fmt.Sprintf("persisted master %s does not match: %d rows expected, %d found, %d keys missing, %d unexpected",
				path, report.Expected, report.Actual, len(report.MissingKeys), len(report.ExtraKeys)), nil).
			WithContext("path", path)
	}
	return report, nil
}

func keySet(t domain.Table[domain.MasterRecord]) map[int64]struct{} {
	keys := make(map[int64]struct{}, t.Len())
	for _, rec := range t.Rows {
		keys[rec.PostID] = struct{}{}
	}
	return keys
}
