package dataprocessing

import (
	"dogwrangle/pkg/contracts/domain"
)

// Processor turns the three raw tables into the master table
type Processor interface {
	// Process never modifies the tables in sources
	Process(sources *Sources) (*Result, error)
}

// Result is the outcome of one cleaning pass
type Result struct {
	Master    domain.Table[domain.MasterRecord]
	Normalize NormalizeReport
	Filter    FilterReport

	// MergedRows is the row count right after the joins
	MergedRows int
}
