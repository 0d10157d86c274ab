package domain

import (
	"time"
)

// Stage is the life-stage tag attached to a post. The zero value means no stage.
type Stage string

const (
	StageNone    Stage = ""
	StageDoggo   Stage = "doggo"
	StageFloofer Stage = "floofer"
	StagePupper  Stage = "pupper"
	StagePuppo   Stage = "puppo"
)

// Stages lists the known stages in tie-break priority order
var Stages = []Stage{StageDoggo, StageFloofer, StagePupper, StagePuppo}

// IsValid reports whether s is StageNone or one of the known stages
func (s Stage) IsValid() bool {
	if s == StageNone {
		return true
	}
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// StageFlags holds the four one-hot stage columns of the archive
type StageFlags struct {
	Doggo   bool `json:"doggo"`
	Floofer bool `json:"floofer"`
	Pupper  bool `json:"pupper"`
	Puppo   bool `json:"puppo"`
}

// Set reports whether the flag for stage s is set
func (f StageFlags) Set(s Stage) bool {
	switch s {
	case StageDoggo:
		return f.Doggo
	case StageFloofer:
		return f.Floofer
	case StagePupper:
		return f.Pupper
	case StagePuppo:
		return f.Puppo
	}
	return false
}

// Count returns how many flags are set
func (f StageFlags) Count() int {
	n := 0
	for _, s := range Stages {
		if f.Set(s) {
			n++
		}
	}
	return n
}

// RawArchiveRecord is one archive row as delivered by the archive file.
// Timestamps, ratings and source labels are still unparsed text.
type RawArchiveRecord struct {
	PostID                 int64      `json:"post_id"`
	InReplyToStatusID      *string    `json:"in_reply_to_status_id,omitempty"`
	InReplyToUserID        *string    `json:"in_reply_to_user_id,omitempty"`
	CreatedAt              string     `json:"created_at"`
	Source                 string     `json:"source"`
	Body                   string     `json:"text"`
	RetweetedFromID        *string    `json:"retweeted_status_id,omitempty"`
	RetweetedFromAuthorID  *string    `json:"retweeted_status_user_id,omitempty"`
	RetweetedFromTimestamp *string    `json:"retweeted_status_timestamp,omitempty"`
	ExpandedURLs           *string    `json:"expanded_urls,omitempty"`
	RatingNumerator        string     `json:"rating_numerator"`
	RatingDenominator      string     `json:"rating_denominator"`
	AuthorDisplayName      *string    `json:"name,omitempty"`
	StageFlags             StageFlags `json:"stage_flags"`
}

// ArchiveRecord is an archive row after type coercion
type ArchiveRecord struct {
	PostID                 int64      `json:"post_id"`
	InReplyToStatusID      *string    `json:"in_reply_to_status_id,omitempty"`
	InReplyToUserID        *string    `json:"in_reply_to_user_id,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	Source                 string     `json:"source"`
	Body                   string     `json:"text"`
	RetweetedFromID        *string    `json:"retweeted_status_id,omitempty"`
	RetweetedFromAuthorID  *string    `json:"retweeted_status_user_id,omitempty"`
	RetweetedFromTimestamp *string    `json:"retweeted_status_timestamp,omitempty"`
	ExpandedURLs           *string    `json:"expanded_urls,omitempty"`
	RatingNumerator        float64    `json:"rating_numerator"`
	RatingDenominator      float64    `json:"rating_denominator"`
	AuthorDisplayName      *string    `json:"name,omitempty"`
	StageFlags             StageFlags `json:"stage_flags"`
}

// IsReshare reports whether the record republishes another post
func (r ArchiveRecord) IsReshare() bool {
	return r.RetweetedFromID != nil
}
