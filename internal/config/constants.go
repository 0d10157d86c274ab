package config

import "time"

// Application constants
const (
	AppName    = "wrangle"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. WRANGLE_SOURCES_ARCHIVE
	EnvPrefix = "WRANGLE"

	// Default source and output file names (relative to the data directory)
	DefaultArchiveFile     = "twitter-archive-enhanced.csv"
	DefaultPredictionsFile = "image-predictions.tsv"
	DefaultEngagementFile  = "tweet-json.txt"
	DefaultMasterFile      = "twitter_archive_master.csv"

	// DefaultPredictionsURL is where the image-prediction file is published
	DefaultPredictionsURL = "https://d17h27t6h515a5.cloudfront.net/topher/2017/August/599fd2ad_image-predictions/image-predictions.tsv"

	// File Paths (relative to the base directory)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second
)
