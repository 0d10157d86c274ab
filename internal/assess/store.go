package assess

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"dogwrangle/internal/dataprocessing"
	"dogwrangle/pkg/contracts/domain"
)

const schema = `
CREATE TABLE archive (
	post_id INTEGER NOT NULL,
	in_reply_to_status_id TEXT,
	in_reply_to_user_id TEXT,
	created_at TEXT,
	source TEXT,
	text TEXT,
	retweeted_status_id TEXT,
	retweeted_status_user_id TEXT,
	retweeted_status_timestamp TEXT,
	expanded_urls TEXT,
	rating_numerator TEXT,
	rating_denominator TEXT,
	name TEXT,
	doggo INTEGER NOT NULL,
	floofer INTEGER NOT NULL,
	pupper INTEGER NOT NULL,
	puppo INTEGER NOT NULL
);

CREATE TABLE predictions (
	post_id INTEGER NOT NULL,
	jpg_url TEXT,
	img_num INTEGER,
	p1 TEXT, p1_conf REAL, p1_dog INTEGER,
	p2 TEXT, p2_conf REAL, p2_dog INTEGER,
	p3 TEXT, p3_conf REAL, p3_dog INTEGER
);

CREATE TABLE engagement (
	post_id INTEGER NOT NULL,
	favorite_count INTEGER,
	retweet_count INTEGER,
	retweeted INTEGER
);

CREATE INDEX idx_predictions_post ON predictions(post_id);
CREATE INDEX idx_engagement_post ON engagement(post_id);
`

// store is an in-memory SQLite copy of the three raw tables
type store struct {
	db *sql.DB
}

// openStore creates an empty in-memory database with the raw schema
func openStore(ctx context.Context) (*store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &store{db: db}, nil
}

// Close closes the database connection
func (s *store) Close() error {
	return s.db.Close()
}

// load copies the three tables in one transaction
func (s *store) load(ctx context.Context, sources *dataprocessing.Sources) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertArchive(ctx, tx, sources.Archive); err != nil {
		return fmt.Errorf("failed to load archive: %w", err)
	}
	if err := insertPredictions(ctx, tx, sources.Predictions); err != nil {
		return fmt.Errorf("failed to load predictions: %w", err)
	}
	if err := insertEngagement(ctx, tx, sources.Engagement); err != nil {
		return fmt.Errorf("failed to load engagement: %w", err)
	}
	return tx.Commit()
}

func insertArchive(ctx context.Context, tx *sql.Tx, t domain.Table[domain.RawArchiveRecord]) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO archive (post_id, in_reply_to_status_id, in_reply_to_user_id, created_at,
			source, text, retweeted_status_id, retweeted_status_user_id, retweeted_status_timestamp,
			expanded_urls, rating_numerator, rating_denominator, name, doggo, floofer, pupper, puppo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		_, err := stmt.ExecContext(ctx, r.PostID, r.InReplyToStatusID, r.InReplyToUserID, r.CreatedAt,
			r.Source, r.Body, r.RetweetedFromID, r.RetweetedFromAuthorID, r.RetweetedFromTimestamp,
			r.ExpandedURLs, r.RatingNumerator, r.RatingDenominator, r.AuthorDisplayName,
			r.StageFlags.Doggo, r.StageFlags.Floofer, r.StageFlags.Pupper, r.StageFlags.Puppo)
		if err != nil {
			return fmt.Errorf("post %d: %w", r.PostID, err)
		}
	}
	return nil
}

func insertPredictions(ctx context.Context, tx *sql.Tx, t domain.Table[domain.ImagePrediction]) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predictions (post_id, jpg_url, img_num,
			p1, p1_conf, p1_dog, p2, p2_conf, p2_dog, p3, p3_conf, p3_dog)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		p := r.Predictions
		_, err := stmt.ExecContext(ctx, r.PostID, r.JPGURL, r.ImageNumber,
			p[0].Label, p[0].Confidence, p[0].IsDog,
			p[1].Label, p[1].Confidence, p[1].IsDog,
			p[2].Label, p[2].Confidence, p[2].IsDog)
		if err != nil {
			return fmt.Errorf("post %d: %w", r.PostID, err)
		}
	}
	return nil
}

func insertEngagement(ctx context.Context, tx *sql.Tx, t domain.Table[domain.EngagementRecord]) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO engagement (post_id, favorite_count, retweet_count, retweeted)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		if _, err := stmt.ExecContext(ctx, r.PostID, r.FavoriteCount, r.RetweetCount, r.Retweeted); err != nil {
			return fmt.Errorf("post %d: %w", r.PostID, err)
		}
	}
	return nil
}

// count runs a query returning a single integer
func (s *store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// groupCounts runs a two-column value/count query
func (s *store) groupCounts(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return nil, err
		}
		counts[value] = n
	}
	return counts, rows.Err()
}
