package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"dogwrangle/pkg/contracts/domain"
)

// MasterColumns is the column order of the master table
var MasterColumns = []string{
	"post_id",
	"in_reply_to_status_id",
	"in_reply_to_user_id",
	"created_at",
	"source",
	"text",
	"expanded_urls",
	"rating_numerator",
	"rating_denominator",
	"name",
	"stage",
	"jpg_url",
	"img_num",
	"p1", "p1_conf", "p1_dog",
	"p2", "p2_conf", "p2_dog",
	"p3", "p3_conf", "p3_dog",
	"favorite_count",
	"retweet_count",
	"retweeted",
}

// formatFloat formats a float64 with the fewest digits that round-trip
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatNullable writes null as an empty cell
func formatNullable(s *string) string {
	return domain.StringValue(s)
}

// MasterRow renders rec in MasterColumns order
func MasterRow(rec domain.MasterRecord) []string {
	row := []string{
		formatInt(rec.PostID),
		formatNullable(rec.InReplyToStatusID),
		formatNullable(rec.InReplyToUserID),
		domain.FormatTimestamp(rec.CreatedAt),
		rec.Source,
		rec.Body,
		formatNullable(rec.ExpandedURLs),
		formatFloat(rec.RatingNumerator),
		formatFloat(rec.RatingDenominator),
		formatNullable(rec.AuthorDisplayName),
		string(rec.Stage),
		rec.JPGURL,
		strconv.Itoa(rec.ImageNumber),
	}
	for _, p := range rec.Predictions {
		row = append(row, p.Label, formatFloat(p.Confidence), formatBool(p.IsDog))
	}
	return append(row,
		formatInt(rec.FavoriteCount),
		formatInt(rec.RetweetCount),
		formatBool(rec.Retweeted),
	)
}

// columnIndex maps header names to positions and checks that every master
// column is present
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range MasterColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return index, nil
}

// parseMasterRow is the inverse of MasterRow
func parseMasterRow(index map[string]int, fields []string) (domain.MasterRecord, error) {
	get := func(column string) string { return fields[index[column]] }
	nullable := func(column string) *string {
		if v := get(column); v != "" {
			return domain.StringPtr(v)
		}
		return nil
	}

	var (
		rec domain.MasterRecord
		err error
	)
	if rec.PostID, err = strconv.ParseInt(get("post_id"), 10, 64); err != nil {
		return rec, fmt.Errorf("post_id: %w", err)
	}
	if rec.CreatedAt, err = domain.ParseTimestamp(get("created_at")); err != nil {
		return rec, fmt.Errorf("created_at: %w", err)
	}
	if rec.RatingNumerator, err = strconv.ParseFloat(get("rating_numerator"), 64); err != nil {
		return rec, fmt.Errorf("rating_numerator: %w", err)
	}
	if rec.RatingDenominator, err = strconv.ParseFloat(get("rating_denominator"), 64); err != nil {
		return rec, fmt.Errorf("rating_denominator: %w", err)
	}
	if rec.ImageNumber, err = strconv.Atoi(get("img_num")); err != nil {
		return rec, fmt.Errorf("img_num: %w", err)
	}
	for i := range rec.Predictions {
		prefix := fmt.Sprintf("p%d", i+1)
		p := domain.Prediction{Label: get(prefix)}
		if p.Confidence, err = strconv.ParseFloat(get(prefix+"_conf"), 64); err != nil {
			return rec, fmt.Errorf("%s_conf: %w", prefix, err)
		}
		if p.IsDog, err = strconv.ParseBool(get(prefix + "_dog")); err != nil {
			return rec, fmt.Errorf("%s_dog: %w", prefix, err)
		}
		rec.Predictions[i] = p
	}
	if rec.FavoriteCount, err = strconv.ParseInt(get("favorite_count"), 10, 64); err != nil {
		return rec, fmt.Errorf("favorite_count: %w", err)
	}
	if rec.RetweetCount, err = strconv.ParseInt(get("retweet_count"), 10, 64); err != nil {
		return rec, fmt.Errorf("retweet_count: %w", err)
	}
	if rec.Retweeted, err = strconv.ParseBool(get("retweeted")); err != nil {
		return rec, fmt.Errorf("retweeted: %w", err)
	}

	rec.InReplyToStatusID = nullable("in_reply_to_status_id")
	rec.InReplyToUserID = nullable("in_reply_to_user_id")
	rec.Source = get("source")
	rec.Body = get("text")
	rec.ExpandedURLs = nullable("expanded_urls")
	rec.AuthorDisplayName = nullable("name")
	rec.Stage = domain.Stage(get("stage"))
	rec.JPGURL = get("jpg_url")
	return rec, nil
}
