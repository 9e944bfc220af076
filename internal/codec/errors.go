package codec

import "fmt"

// LengthMismatchError signals that the parsed numeric feature count
// disagrees with the schema. The root cause is almost always a delimiter
// mismatch upstream, so this aborts the worker instead of skipping records.
type LengthMismatchError struct {
	Expected  int
	Parsed    int
	Delimiter string
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("input length is inconsistent with parsing size, expected: %d, parsed: %d, delimiter: %q",
		e.Expected, e.Parsed, e.Delimiter)
}
