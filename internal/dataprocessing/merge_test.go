package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogwrangle/pkg/contracts/domain"
)

func TestResolveStage(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		flags domain.StageFlags
		want  domain.Stage
	}{
		{"no stage", "Just a good dog", domain.StageFlags{}, domain.StageNone},
		{"flag only", "Just a good dog", domain.StageFlags{Floofer: true}, domain.StageFloofer},
		{"text wins over flags", "What a puppo", domain.StageFlags{Doggo: true}, domain.StagePuppo},
		{"leftmost keyword", "A pupper and a doggo", domain.StageFlags{Doggo: true, Pupper: true}, domain.StagePupper},
		{"flag priority", "no keyword here", domain.StageFlags{Puppo: true, Doggo: true}, domain.StageDoggo},
		{"case sensitive text", "DOGGO", domain.StageFlags{}, domain.StageNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStage(tt.body, tt.flags))
		})
	}
}

func TestCollapseStages(t *testing.T) {
	in := archiveTable(
		domain.ArchiveRecord{PostID: 1, Body: "a doggo", StageFlags: domain.StageFlags{Doggo: true}},
		domain.ArchiveRecord{PostID: 2, Body: "nothing"},
	)

	out := CollapseStages(in)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, domain.StageDoggo, out.Rows[0].Stage)
	assert.Zero(t, out.Rows[0].StageFlags.Count(), "flags are dropped")
	assert.Equal(t, domain.StageNone, out.Rows[1].Stage)
	assert.True(t, in.Rows[0].StageFlags.Doggo)

	for _, rec := range out.Rows {
		assert.True(t, rec.Stage.IsValid())
	}
}

func staged(id int64) domain.StagedRecord {
	return domain.StagedRecord{ArchiveRecord: domain.ArchiveRecord{PostID: id}}
}

func TestMerge_InnerJoin(t *testing.T) {
	archive := domain.NewTable(ArchiveTable, []domain.StagedRecord{staged(3), staged(1), staged(2), staged(4)})
	predictions := domain.NewTable(PredictionsTable, []domain.ImagePrediction{
		{PostID: 1, ImageNumber: 1},
		{PostID: 3, ImageNumber: 1},
		{PostID: 3, ImageNumber: 2},
		{PostID: 4, ImageNumber: 1},
	})
	engagement := domain.NewTable(EngagementTable, []domain.EngagementRecord{
		{PostID: 1, FavoriteCount: 10},
		{PostID: 2, FavoriteCount: 20},
		{PostID: 3, FavoriteCount: 30},
	})

	merged := Merge(archive, predictions, engagement)
	require.Equal(t, 3, merged.Len())

	// archive order, then prediction order
	assert.Equal(t, int64(3), merged.Rows[0].PostID)
	assert.Equal(t, 1, merged.Rows[0].Image.ImageNumber)
	assert.Equal(t, int64(3), merged.Rows[1].PostID)
	assert.Equal(t, 2, merged.Rows[1].Image.ImageNumber)
	assert.Equal(t, int64(1), merged.Rows[2].PostID)
	assert.Equal(t, int64(10), merged.Rows[2].Engagement.FavoriteCount)

	for _, rec := range merged.Rows {
		assert.Equal(t, rec.PostID, rec.Image.PostID)
		assert.Equal(t, rec.PostID, rec.Engagement.PostID)
	}
}

func TestMerge_Empty(t *testing.T) {
	merged := Merge(
		domain.NewTable[domain.StagedRecord](ArchiveTable, nil),
		domain.NewTable[domain.ImagePrediction](PredictionsTable, nil),
		domain.NewTable[domain.EngagementRecord](EngagementTable, nil),
	)
	assert.Zero(t, merged.Len())
}
