// Package config provides configuration loading for the wrangle pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern WRANGLE_<SECTION>_<FIELD>:
//
//	WRANGLE_SOURCES_ARCHIVE=data/twitter-archive-enhanced.csv
//	WRANGLE_OUTPUT_MASTER_CSV=out/master.csv
//	WRANGLE_LOGGING_LEVEL=debug
//	WRANGLE_TELEMETRY_ENABLE_TRACING=true
//
// # Configuration File
//
// When no file is named on the command line, wrangle.yaml and
// configs/wrangle.yaml are tried in that order:
//
//	sources:
//	  archive: data/twitter-archive-enhanced.csv
//	  predictions: data/image-predictions.tsv
//	  engagement: data/tweet-json.txt
//	output:
//	  master_csv: data/twitter_archive_master.csv
//	  xlsx: data/twitter_archive_master.xlsx
//
// Relative paths are resolved against paths.base_dir.
package config
