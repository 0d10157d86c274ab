// Package assess reports quality and tidiness problems in the raw tables
// before any cleaning happens.
//
// The three tables are copied into an in-memory SQLite database and each
// check is a SQL query over it. Nothing is written to disk.
package assess
