package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/pkg/contracts/domain"
)

// Table names used in logs, metrics and the assessment report
const (
	ArchiveTable     = "archive"
	PredictionsTable = "predictions"
	EngagementTable  = "engagement"
	MasterTable      = "master"
)

// noneSentinel is how the archive spells an absent name or stage flag
const noneSentinel = "None"

// maxJSONLine bounds a single engagement line
const maxJSONLine = 4 * 1024 * 1024

var archiveColumns = []string{
	"tweet_id", "timestamp", "source", "text", "expanded_urls",
	"rating_numerator", "rating_denominator", "name",
}

var predictionColumns = []string{
	"tweet_id", "jpg_url", "img_num",
	"p1", "p1_conf", "p1_dog",
	"p2", "p2_conf", "p2_dog",
	"p3", "p3_conf", "p3_dog",
}

// SourcePaths names the three input files of a run
type SourcePaths struct {
	Archive     string
	Predictions string
	Engagement  string
}

// Sources holds the three raw tables as loaded
type Sources struct {
	Archive     domain.Table[domain.RawArchiveRecord]
	Predictions domain.Table[domain.ImagePrediction]
	Engagement  domain.Table[domain.EngagementRecord]
}

// Loader reads the local source files into raw tables. It never reaches the network.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads all three sources. The first failure aborts the load.
func (l *Loader) Load(paths SourcePaths) (*Sources, error) {
	archive, err := l.LoadArchive(paths.Archive)
	if err != nil {
		return nil, err
	}
	predictions, err := l.LoadPredictions(paths.Predictions)
	if err != nil {
		return nil, err
	}
	engagement, err := l.LoadEngagement(paths.Engagement)
	if err != nil {
		return nil, err
	}
	return &Sources{Archive: archive, Predictions: predictions, Engagement: engagement}, nil
}

// LoadArchive reads the comma-separated post archive
func (l *Loader) LoadArchive(path string) (domain.Table[domain.RawArchiveRecord], error) {
	var rows []domain.RawArchiveRecord

	err := readDelimited(path, ',', archiveColumns, func(row delimitedRow) error {
		postID, err := row.postID()
		if err != nil {
			return err
		}
		rec := domain.RawArchiveRecord{
			PostID:                 postID,
			InReplyToStatusID:      nullable(row.get("in_reply_to_status_id")),
			InReplyToUserID:        nullable(row.get("in_reply_to_user_id")),
			CreatedAt:              row.get("timestamp"),
			Source:                 row.get("source"),
			Body:                   row.get("text"),
			RetweetedFromID:        nullable(row.get("retweeted_status_id")),
			RetweetedFromAuthorID:  nullable(row.get("retweeted_status_user_id")),
			RetweetedFromTimestamp: nullable(row.get("retweeted_status_timestamp")),
			ExpandedURLs:           nullable(row.get("expanded_urls")),
			RatingNumerator:        row.get("rating_numerator"),
			RatingDenominator:      row.get("rating_denominator"),
			AuthorDisplayName:      nullableName(row.get("name")),
			StageFlags: domain.StageFlags{
				Doggo:   stageFlag(row.get("doggo"), domain.StageDoggo),
				Floofer: stageFlag(row.get("floofer"), domain.StageFloofer),
				Pupper:  stageFlag(row.get("pupper"), domain.StagePupper),
				Puppo:   stageFlag(row.get("puppo"), domain.StagePuppo),
			},
		}
		rows = append(rows, rec)
		return nil
	})
	if err != nil {
		return domain.Table[domain.RawArchiveRecord]{}, err
	}

	l.logger.Info("Source loaded",
		slog.String("table", ArchiveTable),
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return domain.NewTable(ArchiveTable, rows), nil
}

// LoadPredictions reads the tab-separated image-prediction file
func (l *Loader) LoadPredictions(path string) (domain.Table[domain.ImagePrediction], error) {
	var rows []domain.ImagePrediction

	err := readDelimited(path, '\t', predictionColumns, func(row delimitedRow) error {
		postID, err := row.postID()
		if err != nil {
			return err
		}
		imgNum, err := strconv.Atoi(strings.TrimSpace(row.get("img_num")))
		if err != nil {
			return row.malformed("img_num: %w", err)
		}

		rec := domain.ImagePrediction{
			PostID:      postID,
			JPGURL:      row.get("jpg_url"),
			ImageNumber: imgNum,
		}
		for i := range rec.Predictions {
			prefix := fmt.Sprintf("p%d", i+1)
			conf, err := strconv.ParseFloat(strings.TrimSpace(row.get(prefix+"_conf")), 64)
			if err != nil {
				return row.malformed("%s_conf: %w", prefix, err)
			}
			isDog, err := strconv.ParseBool(strings.TrimSpace(row.get(prefix + "_dog")))
			if err != nil {
				return row.malformed("%s_dog: %w", prefix, err)
			}
			rec.Predictions[i] = domain.Prediction{
				Label:      row.get(prefix),
				Confidence: conf,
				IsDog:      isDog,
			}
		}
		rows = append(rows, rec)
		return nil
	})
	if err != nil {
		return domain.Table[domain.ImagePrediction]{}, err
	}

	l.logger.Info("Source loaded",
		slog.String("table", PredictionsTable),
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return domain.NewTable(PredictionsTable, rows), nil
}

// engagementLine mirrors the fields read from one engagement object. Pointers
// distinguish a missing key from a zero value.
type engagementLine struct {
	ID            *int64 `json:"id"`
	FavoriteCount *int64 `json:"favorite_count"`
	RetweetCount  *int64 `json:"retweet_count"`
	Retweeted     *bool  `json:"retweeted"`
}

// LoadEngagement reads the line-delimited JSON engagement file. Each non-blank
// line is one object; any bad line fails the whole load.
func (l *Loader) LoadEngagement(path string) (domain.Table[domain.EngagementRecord], error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Table[domain.EngagementRecord]{}, apperrors.NewSourceUnavailableError(path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLine)

	var rows []domain.EngagementRecord
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var obj engagementLine
		if err := json.Unmarshal(raw, &obj); err != nil {
			return domain.Table[domain.EngagementRecord]{}, apperrors.NewMalformedRecordError(path, line, err)
		}
		rec, err := obj.record()
		if err != nil {
			return domain.Table[domain.EngagementRecord]{}, apperrors.NewMalformedRecordError(path, line, err)
		}
		rows = append(rows, rec)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return domain.Table[domain.EngagementRecord]{}, apperrors.NewMalformedRecordError(path, line+1, err)
		}
		return domain.Table[domain.EngagementRecord]{}, apperrors.NewSourceUnavailableError(path, err)
	}

	l.logger.Info("Source loaded",
		slog.String("table", EngagementTable),
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return domain.NewTable(EngagementTable, rows), nil
}

func (e engagementLine) record() (domain.EngagementRecord, error) {
	switch {
	case e.ID == nil:
		return domain.EngagementRecord{}, fmt.Errorf("missing id")
	case e.FavoriteCount == nil:
		return domain.EngagementRecord{}, fmt.Errorf("missing favorite_count")
	case e.RetweetCount == nil:
		return domain.EngagementRecord{}, fmt.Errorf("missing retweet_count")
	case e.Retweeted == nil:
		return domain.EngagementRecord{}, fmt.Errorf("missing retweeted")
	case *e.ID <= 0:
		return domain.EngagementRecord{}, fmt.Errorf("id %d is not positive", *e.ID)
	case *e.FavoriteCount < 0 || *e.RetweetCount < 0:
		return domain.EngagementRecord{}, fmt.Errorf("negative counter")
	}
	return domain.EngagementRecord{
		PostID:        *e.ID,
		FavoriteCount: *e.FavoriteCount,
		RetweetCount:  *e.RetweetCount,
		Retweeted:     *e.Retweeted,
	}, nil
}

// delimitedRow is one data row of a CSV or TSV source, addressed by column name
type delimitedRow struct {
	path    string
	line    int
	fields  []string
	columns map[string]int
}

// get returns the cell for column, or "" when the file has no such column
func (r delimitedRow) get(column string) string {
	idx, ok := r.columns[column]
	if !ok {
		return ""
	}
	return r.fields[idx]
}

func (r delimitedRow) postID() (int64, error) {
	value := strings.TrimSpace(r.get("tweet_id"))
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, r.malformed("tweet_id %q: %w", value, err)
	}
	if id <= 0 {
		return 0, r.malformed("tweet_id %d is not positive", id)
	}
	return id, nil
}

func (r delimitedRow) malformed(format string, args ...any) error {
	return apperrors.NewMalformedRecordError(r.path, r.line, fmt.Errorf(format, args...))
}

// readDelimited streams a delimited file with a header row to visit. Every row
// must have as many fields as the header.
func readDelimited(path string, comma rune, required []string, visit func(delimitedRow) error) error {
	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewSourceUnavailableError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	if comma == '\t' {
		reader.LazyQuotes = true
	}

	header, err := reader.Read()
	if err == io.EOF {
		return apperrors.NewMalformedRecordError(path, 1, fmt.Errorf("missing header row"))
	}
	if err != nil {
		return csvError(path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return apperrors.NewMalformedRecordError(path, 1, fmt.Errorf("missing column %q", name))
		}
	}

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return csvError(path, err)
		}
		line, _ := reader.FieldPos(0)
		if err := visit(delimitedRow{path: path, line: line, fields: fields, columns: columns}); err != nil {
			return err
		}
	}
}

// csvError maps a csv reader failure onto the error taxonomy
func csvError(path string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.NewMalformedRecordError(path, parseErr.Line, parseErr.Err)
	}
	return apperrors.NewSourceUnavailableError(path, err)
}

func nullable(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return domain.StringPtr(value)
}

func nullableName(value string) *string {
	if strings.TrimSpace(value) == noneSentinel {
		return nil
	}
	return nullable(value)
}

func stageFlag(value string, stage domain.Stage) bool {
	return strings.EqualFold(strings.TrimSpace(value), string(stage))
}
