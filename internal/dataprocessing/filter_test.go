package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogwrangle/pkg/contracts/domain"
)

func mergedRecord(id int64) domain.MergedRecord {
	rec := domain.MergedRecord{
		StagedRecord: domain.StagedRecord{
			ArchiveRecord: domain.ArchiveRecord{
				PostID:            id,
				CreatedAt:         time.Date(2017, 8, 1, 16, 23, 56, 0, time.UTC),
				Source:            "Twitter for iphone",
				ExpandedURLs:      domain.StringPtr("https://example.com/photo/1"),
				RatingNumerator:   12,
				RatingDenominator: 10,
				AuthorDisplayName: domain.StringPtr("Rex"),
			},
		},
		Image:      domain.ImagePrediction{PostID: id, JPGURL: "https://img/1.jpg", ImageNumber: 1},
		Engagement: domain.EngagementRecord{PostID: id, FavoriteCount: 5, RetweetCount: 1},
	}
	return rec
}

func TestFilter_Order(t *testing.T) {
	reshare := mergedRecord(2)
	reshare.RetweetedFromID = domain.StringPtr("99")

	// duplicate with separately allocated pointers still counts as identical
	dup := mergedRecord(1)
	dup.ExpandedURLs = domain.StringPtr("https://example.com/photo/1")

	noImage := mergedRecord(3)
	noImage.ExpandedURLs = nil

	offScale := mergedRecord(4)
	offScale.RatingDenominator = 70

	secondImage := mergedRecord(1)
	secondImage.Image.ImageNumber = 2

	merged := domain.NewTable(MasterTable, []domain.MergedRecord{
		mergedRecord(1), reshare, dup, noImage, offScale, secondImage, mergedRecord(5),
	})

	master, report := Filter(merged, testLogger())

	assert.Equal(t, FilterReport{
		Input:         7,
		Reshares:      1,
		DuplicateRows: 1,
		MissingImages: 1,
		OffScale:      1,
		DuplicateKeys: 1,
		Output:        2,
	}, report)

	require.Equal(t, 2, master.Len())
	assert.Equal(t, int64(1), master.Rows[0].PostID)
	assert.Equal(t, 1, master.Rows[0].ImageNumber, "first row of a key is kept")
	assert.Equal(t, int64(5), master.Rows[1].PostID)

	assert.Equal(t, 7, merged.Len(), "input untouched")
}

func TestFilter_OutputInvariants(t *testing.T) {
	sources, err := NewLoader(testLogger()).Load(fixturePaths())
	require.NoError(t, err)
	result, err := NewCleaningProcessor(testLogger()).Process(sources)
	require.NoError(t, err)

	keys := make(map[int64]bool)
	for _, rec := range result.Master.Rows {
		assert.False(t, keys[rec.PostID], "post_id %d repeated", rec.PostID)
		keys[rec.PostID] = true
		assert.NotNil(t, rec.ExpandedURLs)
		assert.Equal(t, 10.0, rec.RatingDenominator)
		assert.True(t, rec.Stage.IsValid())
		if rec.AuthorDisplayName != nil {
			_, placeholder := PlaceholderNames[*rec.AuthorDisplayName]
			assert.False(t, placeholder)
			assert.Equal(t, CapitalizeName(*rec.AuthorDisplayName), *rec.AuthorDisplayName)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	merged := domain.NewTable(MasterTable, []domain.MergedRecord{mergedRecord(1), mergedRecord(1), mergedRecord(2)})

	once, _ := Filter(merged, testLogger())

	again, report := DropDuplicateRows(once)
	assert.Zero(t, report)
	again, report = DropMissingImages(again)
	assert.Zero(t, report)
	again, report = DropOffScaleRatings(again)
	assert.Zero(t, report)
	again, report = DropDuplicateKeys(again)
	assert.Zero(t, report)
	assert.Equal(t, once, again)
}

func TestFilterReport_Dropped(t *testing.T) {
	report := FilterReport{Reshares: 2, OffScale: 1}
	dropped := report.Dropped()
	assert.Equal(t, 2, dropped[ReasonReshare])
	assert.Equal(t, 1, dropped[ReasonOffScale])
	assert.Equal(t, 0, dropped[ReasonDuplicateKey])
	assert.Len(t, dropped, 5)
}
