package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/pkg/contracts/domain"
)

// PlaceholderNames are article words the archive mistook for names.
// Matching is case-sensitive.
var PlaceholderNames = map[string]struct{}{
	"a":   {},
	"the": {},
	"an":  {},
}

// SourceLabels maps the raw client markup onto a short label
var SourceLabels = map[string]string{
	`<a href="http://twitter.com/download/iphone" rel="nofollow">Twitter for iPhone</a>`:    "Twitter for iphone",
	`<a href="http://vine.co" rel="nofollow">Vine - Make a Scene</a>`:                       "Vine - Make a Scene",
	`<a href="http://twitter.com" rel="nofollow">Twitter Web Client</a>`:                    "Twitter Web Client",
	`<a href="https://about.twitter.com/products/tweetdeck" rel="nofollow">TweetDeck</a>`: "TweetDeck",
}

// DenominatorCorrections patches posts whose extracted rating denominator is
// wrong. Only these keys are touched.
var DenominatorCorrections = map[int64]float64{
	820690176645140481: 10,
	810984652412424192: 10,
	758467244762497024: 10,
	740373189193256964: 10,
	731156023742988288: 10,
}

// NormalizeReport counts what the normalizer changed
type NormalizeReport struct {
	PlaceholderNames      int            `json:"placeholder_names"`
	CapitalizedNames      int            `json:"capitalized_names"`
	CorrectedDenominators int            `json:"corrected_denominators"`
	UnmappedSources       map[string]int `json:"unmapped_sources,omitempty"`
}

// UnmappedRows returns how many rows kept an unmapped source label
func (r NormalizeReport) UnmappedRows() int {
	n := 0
	for _, count := range r.UnmappedSources {
		n += count
	}
	return n
}

// Normalizer applies the per-row quality corrections to the archive
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize coerces the raw archive and applies every quality correction.
// Placeholder elimination always runs before capitalization.
func (n *Normalizer) Normalize(raw domain.Table[domain.RawArchiveRecord]) (domain.Table[domain.ArchiveRecord], NormalizeReport, error) {
	var report NormalizeReport

	archive, err := CoerceTypes(raw)
	if err != nil {
		return domain.Table[domain.ArchiveRecord]{}, report, err
	}

	archive, report.PlaceholderNames = EliminatePlaceholderNames(archive)
	archive, report.CapitalizedNames = CapitalizeNames(archive)
	archive, report.UnmappedSources = HumanizeSources(archive)
	archive, report.CorrectedDenominators = CorrectDenominators(archive)

	labels := make([]string, 0, len(report.UnmappedSources))
	for label := range report.UnmappedSources {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		n.logger.Warn("Unmapped source label kept as is",
			slog.String("source", label),
			slog.Int("rows", report.UnmappedSources[label]))
	}

	n.logger.Info("Archive normalized",
		slog.Int("rows", archive.Len()),
		slog.Int("placeholder_names", report.PlaceholderNames),
		slog.Int("capitalized_names", report.CapitalizedNames),
		slog.Int("corrected_denominators", report.CorrectedDenominators),
		slog.Int("unmapped_source_rows", report.UnmappedRows()))

	return archive, report, nil
}

// CoerceTypes converts the raw archive into typed records. The first row that
// fails conversion aborts the whole table.
func CoerceTypes(raw domain.Table[domain.RawArchiveRecord]) (domain.Table[domain.ArchiveRecord], error) {
	rows := make([]domain.ArchiveRecord, 0, raw.Len())
	for _, r := range raw.Rows {
		createdAt, err := domain.ParseTimestamp(r.CreatedAt)
		if err != nil {
			return domain.Table[domain.ArchiveRecord]{}, apperrors.NewTimestampParseError(r.PostID, r.CreatedAt, err)
		}
		numerator, err := parseRating(r.RatingNumerator)
		if err != nil {
			return domain.Table[domain.ArchiveRecord]{}, apperrors.NewTypeCoercionError(r.PostID, "rating_numerator", r.RatingNumerator, err)
		}
		denominator, err := parseRating(r.RatingDenominator)
		if err != nil {
			return domain.Table[domain.ArchiveRecord]{}, apperrors.NewTypeCoercionError(r.PostID, "rating_denominator", r.RatingDenominator, err)
		}

		rows = append(rows, domain.ArchiveRecord{
			PostID:                 r.PostID,
			InReplyToStatusID:      r.InReplyToStatusID,
			InReplyToUserID:        r.InReplyToUserID,
			CreatedAt:              createdAt,
			Source:                 r.Source,
			Body:                   r.Body,
			RetweetedFromID:        r.RetweetedFromID,
			RetweetedFromAuthorID:  r.RetweetedFromAuthorID,
			RetweetedFromTimestamp: r.RetweetedFromTimestamp,
			ExpandedURLs:           r.ExpandedURLs,
			RatingNumerator:        numerator,
			RatingDenominator:      denominator,
			AuthorDisplayName:      r.AuthorDisplayName,
			StageFlags:             r.StageFlags,
		})
	}
	return domain.NewTable(raw.Name, rows), nil
}

func parseRating(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

// EliminatePlaceholderNames nulls names that are placeholder articles and
// returns how many were nulled
func EliminatePlaceholderNames(t domain.Table[domain.ArchiveRecord]) (domain.Table[domain.ArchiveRecord], int) {
	out := t.Clone()
	changed := 0
	for i := range out.Rows {
		name := out.Rows[i].AuthorDisplayName
		if name == nil {
			continue
		}
		if _, ok := PlaceholderNames[*name]; ok {
			out.Rows[i].AuthorDisplayName = nil
			changed++
		}
	}
	return out, changed
}

// CapitalizeNames upper-cases the first letter of every non-null name and
// returns how many names changed
func CapitalizeNames(t domain.Table[domain.ArchiveRecord]) (domain.Table[domain.ArchiveRecord], int) {
	out := t.Clone()
	changed := 0
	for i := range out.Rows {
		name := out.Rows[i].AuthorDisplayName
		if name == nil {
			continue
		}
		if capitalized := CapitalizeName(*name); capitalized != *name {
			out.Rows[i].AuthorDisplayName = domain.StringPtr(capitalized)
			changed++
		}
	}
	return out, changed
}

// CapitalizeName upper-cases the first rune of name and leaves the rest alone
func CapitalizeName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return name
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return name
	}
	return string(upper) + name[size:]
}

// HumanizeSources replaces known source markup with its label. Unknown values
// are kept and returned with their row counts.
func HumanizeSources(t domain.Table[domain.ArchiveRecord]) (domain.Table[domain.ArchiveRecord], map[string]int) {
	out := t.Clone()
	var unmapped map[string]int
	for i := range out.Rows {
		source := out.Rows[i].Source
		if label, ok := SourceLabels[source]; ok {
			out.Rows[i].Source = label
			continue
		}
		if isSourceLabel(source) {
			continue
		}
		if unmapped == nil {
			unmapped = make(map[string]int)
		}
		unmapped[source]++
	}
	return out, unmapped
}

// isSourceLabel reports whether value already is a humanized label, which
// keeps HumanizeSources idempotent
func isSourceLabel(value string) bool {
	for _, label := range SourceLabels {
		if value == label {
			return true
		}
	}
	return false
}

// CorrectDenominators applies DenominatorCorrections and returns how many
// rows were patched
func CorrectDenominators(t domain.Table[domain.ArchiveRecord]) (domain.Table[domain.ArchiveRecord], int) {
	out := t.Clone()
	changed := 0
	for i := range out.Rows {
		want, ok := DenominatorCorrections[out.Rows[i].PostID]
		if !ok {
			continue
		}
		if out.Rows[i].RatingDenominator != want {
			out.Rows[i].RatingDenominator = want
			changed++
		}
	}
	return out, changed
}
