// Package shared holds helpers used by more than one package.
//
// The testutil subpackage captures slog output in memory so tests can
// assert on what a component logged.
package shared
