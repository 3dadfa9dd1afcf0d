package dataset

import "fmt"

// LoadError reports a dataset that could not be loaded. It is fatal for the
// dashboard session: no aggregate is computed from a partial dataset.
type LoadError struct {
	Path string
	Op   string
	Row  int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load dataset %s: %s (row %d): %v", e.Path, e.Op, e.Row, e.Err)
	}
	return fmt.Sprintf("load dataset %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
