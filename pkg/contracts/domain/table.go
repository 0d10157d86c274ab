package domain

// Table is a named snapshot of rows. Pipeline stages never modify a table they
// receive; they build a new one, usually starting from Clone.
type Table[T any] struct {
	Name string `json:"name"`
	Rows []T    `json:"rows"`
}

// NewTable creates a table with the given name and rows
func NewTable[T any](name string, rows []T) Table[T] {
	return Table[T]{Name: name, Rows: rows}
}

// Len returns the number of rows
func (t Table[T]) Len() int {
	return len(t.Rows)
}

// Clone returns a copy of the table with its own row slice. Rows are copied by
// value, so pointer fields inside a row are shared until replaced.
func (t Table[T]) Clone() Table[T] {
	rows := make([]T, len(t.Rows))
	copy(rows, t.Rows)
	return Table[T]{Name: t.Name, Rows: rows}
}

// Filter returns a new table holding the rows for which keep returns true
func (t Table[T]) Filter(keep func(T) bool) Table[T] {
	rows := make([]T, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return Table[T]{Name: t.Name, Rows: rows}
}

// StringPtr returns a pointer to s. Used for nullable text columns.
func StringPtr(s string) *string {
	return &s
}

// StringValue dereferences a nullable text column, returning "" for null
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
