package dataprocessing

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func fixturePaths() SourcePaths {
	return SourcePaths{
		Archive:     filepath.Join("testdata", "archive.csv"),
		Predictions: filepath.Join("testdata", "predictions.tsv"),
		Engagement:  filepath.Join("testdata", "engagement.jsonl"),
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadFixtures(t *testing.T) {
	sources, err := NewLoader(testLogger()).Load(fixturePaths())
	require.NoError(t, err)

	assert.Equal(t, ArchiveTable, sources.Archive.Name)
	assert.Equal(t, 10, sources.Archive.Len())
	assert.Equal(t, 10, sources.Predictions.Len())
	assert.Equal(t, 11, sources.Engagement.Len(), "blank line is skipped")

	first := sources.Archive.Rows[0]
	assert.Equal(t, int64(892420643555336193), first.PostID)
	assert.Equal(t, "2017-08-01 16:23:56 +0000", first.CreatedAt)
	assert.Equal(t, "13", first.RatingNumerator)
	assert.Equal(t, "10", first.RatingDenominator)
	require.NotNil(t, first.AuthorDisplayName)
	assert.Equal(t, "Phineas", *first.AuthorDisplayName)
	assert.Nil(t, first.InReplyToStatusID)
	assert.Nil(t, first.RetweetedFromID)
	assert.Zero(t, first.StageFlags.Count())

	reshare := sources.Archive.Rows[2]
	require.NotNil(t, reshare.RetweetedFromID)
	assert.Equal(t, "8.874739571039519e+17", *reshare.RetweetedFromID)

	noURL := sources.Archive.Rows[6]
	assert.Nil(t, noURL.ExpandedURLs)

	twoFlags := sources.Archive.Rows[5]
	assert.Nil(t, twoFlags.AuthorDisplayName, "None sentinel is null")
	assert.True(t, twoFlags.StageFlags.Doggo)
	assert.True(t, twoFlags.StageFlags.Pupper)
	assert.Equal(t, 2, twoFlags.StageFlags.Count())

	reply := sources.Archive.Rows[9]
	require.NotNil(t, reply.InReplyToStatusID)
	assert.Equal(t, "8.776195e+17", *reply.InReplyToStatusID)

	pred := sources.Predictions.Rows[0]
	assert.Equal(t, int64(892420643555336193), pred.PostID)
	assert.Equal(t, 1, pred.ImageNumber)
	assert.Equal(t, "orange", pred.Predictions[0].Label)
	assert.False(t, pred.Predictions[0].IsDog)
	assert.InDelta(t, 0.8, pred.Predictions[0].Confidence, 1e-9)
	assert.Equal(t, "cocker_spaniel", pred.Predictions[2].Label)

	eng := sources.Engagement.Rows[0]
	assert.Equal(t, domain.EngagementRecord{
		PostID:        892420643555336193,
		FavoriteCount: 39467,
		RetweetCount:  8853,
	}, eng)
}

func TestLoader_MissingSource(t *testing.T) {
	loader := NewLoader(testLogger())
	missing := filepath.Join(t.TempDir(), "nope.csv")

	_, err := loader.LoadArchive(missing)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))

	_, err = loader.LoadPredictions(missing)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))

	_, err = loader.LoadEngagement(missing)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
}

func TestLoader_LoadEngagement_MalformedLine(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{
			name:     "invalid json",
			content:  "{\"id\": 1, \"favorite_count\": 1, \"retweet_count\": 1, \"retweeted\": false}\n{not json}\n",
			wantLine: 2,
		},
		{
			name:     "missing counter",
			content:  "{\"id\": 1, \"retweet_count\": 1, \"retweeted\": false}\n",
			wantLine: 1,
		},
		{
			name:     "line number counts blank lines",
			content:  "\n\n{\"id\": \"x\"}\n",
			wantLine: 3,
		},
		{
			name:     "not an object",
			content:  "[1, 2, 3]\n",
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "engagement.jsonl", tt.content)

			table, err := NewLoader(testLogger()).LoadEngagement(path)
			require.Error(t, err)
			assert.Zero(t, table.Len(), "no partial result")

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrTypeMalformedRecord, appErr.Type)
			assert.Equal(t, tt.wantLine, appErr.Context["line"])
		})
	}
}

func TestLoader_LoadArchive_Malformed(t *testing.T) {
	header := "tweet_id,timestamp,source,text,expanded_urls,rating_numerator,rating_denominator,name\n"

	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{
			name:     "non integer key",
			content:  header + "abc,2017-08-01 16:23:56 +0000,src,text,,13,10,Rex\n",
			wantLine: 2,
		},
		{
			name:     "wrong field count",
			content:  header + "1,2017-08-01 16:23:56 +0000,src,text,,13,10,Rex\n2,2017-08-01 16:23:56 +0000,src\n",
			wantLine: 3,
		},
		{
			name:     "missing column",
			content:  "tweet_id,timestamp\n1,2017-08-01 16:23:56 +0000\n",
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "archive.csv", tt.content)

			_, err := NewLoader(testLogger()).LoadArchive(path)
			require.Error(t, err)

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrTypeMalformedRecord, appErr.Type)
			assert.Equal(t, tt.wantLine, appErr.Context["line"])
		})
	}
}

func TestLoader_LoadArchive_ColumnsByName(t *testing.T) {
	content := "\ufeffname,rating_denominator,rating_numerator,expanded_urls,text,source,timestamp,tweet_id,puppo\n" +
		"Rex,10,12,http://x,hello puppo,src,2017-08-01 16:23:56 +0000,42,puppo\n"
	path := writeFile(t, "archive.csv", content)

	table, err := NewLoader(testLogger()).LoadArchive(path)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	rec := table.Rows[0]
	assert.Equal(t, int64(42), rec.PostID)
	assert.Equal(t, "12", rec.RatingNumerator)
	assert.Equal(t, "Rex", domain.StringValue(rec.AuthorDisplayName))
	assert.True(t, rec.StageFlags.Puppo)
	assert.False(t, rec.StageFlags.Doggo)
	assert.Nil(t, rec.RetweetedFromID)
}

func TestLoader_LoadPredictions_Malformed(t *testing.T) {
	header := "tweet_id\tjpg_url\timg_num\tp1\tp1_conf\tp1_dog\tp2\tp2_conf\tp2_dog\tp3\tp3_conf\tp3_dog\n"
	content := header + "1\thttp://img\t1\tpug\tvery\tTrue\tpug\t0.1\tTrue\tpug\t0.1\tTrue\n"
	path := writeFile(t, "predictions.tsv", content)

	_, err := NewLoader(testLogger()).LoadPredictions(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedRecord))
	assert.Contains(t, err.Error(), "p1_conf")
}
