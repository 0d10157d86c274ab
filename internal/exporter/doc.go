// Package exporter persists the master table.
//
// CSVWriter writes the master CSV with a header row and no index column. Every
// write goes through a temporary file in the target directory that is renamed
// into place, so an interrupted run never leaves a half-written output.
//
// XLSXWriter writes the same rows to a workbook with a single "master" sheet.
//
// ReadMaster and Verify read a persisted file back for summaries and for the
// post-write round-trip check.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(logger)
//	if err := writer.WriteMaster("data/twitter_archive_master.csv", master); err != nil {
//	    return err
//	}
//	report, err := exporter.Verify("data/twitter_archive_master.csv", master)
package exporter
