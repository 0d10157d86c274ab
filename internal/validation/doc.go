// Package validation checks files before a run and master rows before they
// are written.
//
// FileValidator reports unreadable inputs as SOURCE_UNAVAILABLE and
// unwritable outputs as STORAGE errors. RecordValidator applies the validate
// tags of domain.MasterRecord with go-playground/validator, plus a custom
// "capitalized" tag, and checks that post_id is unique across the table.
package validation
