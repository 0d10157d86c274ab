package dataprocessing

import (
	"regexp"

	"dogwrangle/pkg/contracts/domain"
)

// stagePattern finds stage keywords in the post body. Matching is case-sensitive.
var stagePattern = regexp.MustCompile(`(doggo|floofer|pupper|puppo)`)

// CollapseStages folds the four stage flags of each row into a single Stage.
//
// The leftmost keyword in the body wins. When the body names no stage, the
// flags decide in the order doggo, floofer, pupper, puppo. With neither, the
// stage is StageNone.
func CollapseStages(t domain.Table[domain.ArchiveRecord]) domain.Table[domain.StagedRecord] {
	rows := make([]domain.StagedRecord, 0, t.Len())
	for _, rec := range t.Rows {
		stage := ResolveStage(rec.Body, rec.StageFlags)
		rec.StageFlags = domain.StageFlags{}
		rows = append(rows, domain.StagedRecord{ArchiveRecord: rec, Stage: stage})
	}
	return domain.NewTable(t.Name, rows)
}

// ResolveStage picks the stage of a single post
func ResolveStage(body string, flags domain.StageFlags) domain.Stage {
	if match := stagePattern.FindString(body); match != "" {
		return domain.Stage(match)
	}
	for _, s := range domain.Stages {
		if flags.Set(s) {
			return s
		}
	}
	return domain.StageNone
}

// Merge inner-joins the staged archive with the predictions and then with the
// engagement records on post_id. Rows missing from either side are dropped.
// Output follows archive order, then prediction order, then engagement order.
func Merge(
	archive domain.Table[domain.StagedRecord],
	predictions domain.Table[domain.ImagePrediction],
	engagement domain.Table[domain.EngagementRecord],
) domain.Table[domain.MergedRecord] {
	imagesByPost := make(map[int64][]domain.ImagePrediction, predictions.Len())
	for _, p := range predictions.Rows {
		imagesByPost[p.PostID] = append(imagesByPost[p.PostID], p)
	}
	engagementByPost := make(map[int64][]domain.EngagementRecord, engagement.Len())
	for _, e := range engagement.Rows {
		engagementByPost[e.PostID] = append(engagementByPost[e.PostID], e)
	}

	var rows []domain.MergedRecord
	for _, rec := range archive.Rows {
		images := imagesByPost[rec.PostID]
		counters := engagementByPost[rec.PostID]
		for _, img := range images {
			for _, eng := range counters {
				rows = append(rows, domain.MergedRecord{
					StagedRecord: rec,
					Image:        img,
					Engagement:   eng,
				})
			}
		}
	}
	return domain.NewTable(MasterTable, rows)
}
