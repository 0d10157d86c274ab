package domain

import (
	"time"
)

// StagedRecord is an archive row whose four stage flags were collapsed into
// Stage. The embedded StageFlags are cleared and no longer consulted.
type StagedRecord struct {
	ArchiveRecord
	Stage Stage `json:"stage,omitempty"`
}

// MergedRecord is a staged archive row joined with its image prediction and
// engagement counters. It still carries the reshare linkage columns.
type MergedRecord struct {
	StagedRecord
	Image      ImagePrediction  `json:"image"`
	Engagement EngagementRecord `json:"engagement"`
}

// Master converts the merged row into the master schema, which has no
// reshare linkage columns.
func (m MergedRecord) Master() MasterRecord {
	return MasterRecord{
		PostID:            m.PostID,
		InReplyToStatusID: m.InReplyToStatusID,
		InReplyToUserID:   m.InReplyToUserID,
		CreatedAt:         m.CreatedAt,
		Source:            m.Source,
		Body:              m.Body,
		ExpandedURLs:      m.ExpandedURLs,
		RatingNumerator:   m.RatingNumerator,
		RatingDenominator: m.RatingDenominator,
		AuthorDisplayName: m.AuthorDisplayName,
		Stage:             m.Stage,
		JPGURL:            m.Image.JPGURL,
		ImageNumber:       m.Image.ImageNumber,
		Predictions:       m.Image.Predictions,
		FavoriteCount:     m.Engagement.FavoriteCount,
		RetweetCount:      m.Engagement.RetweetCount,
		Retweeted:         m.Engagement.Retweeted,
	}
}

// MasterRecord is one row of the persisted master table
type MasterRecord struct {
	PostID            int64         `json:"post_id" validate:"required,gt=0"`
	InReplyToStatusID *string       `json:"in_reply_to_status_id,omitempty"`
	InReplyToUserID   *string       `json:"in_reply_to_user_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at" validate:"required"`
	Source            string        `json:"source" validate:"required"`
	Body              string        `json:"text"`
	ExpandedURLs      *string       `json:"expanded_urls" validate:"required"`
	RatingNumerator   float64       `json:"rating_numerator" validate:"gte=0"`
	RatingDenominator float64       `json:"rating_denominator" validate:"eq=10"`
	AuthorDisplayName *string       `json:"name,omitempty" validate:"omitempty,capitalized"`
	Stage             Stage         `json:"stage,omitempty" validate:"omitempty,oneof=doggo floofer pupper puppo"`
	JPGURL            string        `json:"jpg_url" validate:"required"`
	ImageNumber       int           `json:"img_num" validate:"gte=1"`
	Predictions       [3]Prediction `json:"predictions"`
	FavoriteCount     int64         `json:"favorite_count" validate:"gte=0"`
	RetweetCount      int64         `json:"retweet_count" validate:"gte=0"`
	Retweeted         bool          `json:"retweeted"`
}
