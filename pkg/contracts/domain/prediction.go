package domain

// Prediction is one ranked guess of the image classifier
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	IsDog      bool    `json:"is_dog"`
}

// ImagePrediction is one row of the image-prediction file. A post can appear
// more than once when it carries several images.
type ImagePrediction struct {
	PostID      int64         `json:"post_id"`
	JPGURL      string        `json:"jpg_url"`
	ImageNumber int           `json:"img_num"`
	Predictions [3]Prediction `json:"predictions"`
}

// EngagementRecord holds the counters observed for a post at collection time
type EngagementRecord struct {
	PostID        int64 `json:"post_id"`
	FavoriteCount int64 `json:"favorite_count"`
	RetweetCount  int64 `json:"retweet_count"`
	Retweeted     bool  `json:"retweeted"`
}
