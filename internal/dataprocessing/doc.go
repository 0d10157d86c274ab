// Package dataprocessing turns the three raw post sources into the master table.
//
// # Architecture
//
// The package is organized into four stages, each a function from one table
// snapshot to a new one:
//
// 1. Loader: reads the archive CSV, the image-prediction TSV and the
// engagement JSON lines into raw tables
// 2. Normalizer: coerces types and fixes names, sources and denominators
// 3. Merge: collapses the stage flags and inner-joins the three tables on post_id
// 4. Filter: drops reshares, duplicates, rows without images, off-scale
// ratings and repeated keys
//
// Summarize computes the descriptive numbers of a finished master table.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	sources, err := loader.Load(dataprocessing.SourcePaths{
//	    Archive:     "data/twitter-archive-enhanced.csv",
//	    Predictions: "data/image-predictions.tsv",
//	    Engagement:  "data/tweet-json.txt",
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := dataprocessing.NewCleaningProcessor(logger).Process(sources)
//
// # Data Flow
//
//	Files → Loader → Raw tables → Normalizer → Archive → Merge → Filter → Master
//
// # Error Handling
//
// Load and normalize failures are *errors.AppError values from internal/errors:
//
//   - missing files are SOURCE_UNAVAILABLE
//   - unparseable rows and lines are MALFORMED_RECORD with the 1-based line
//   - bad timestamps and ratings are TIMESTAMP_PARSE and TYPE_COERCION
//
// Filtering never fails. Dropped rows are counted in FilterReport.
package dataprocessing
