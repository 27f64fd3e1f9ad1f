package dataset

import "fmt"

// MissingDataSourceError is returned when a required dataset is absent
type MissingDataSourceError struct {
	Source string
	URI    string
	Err    error
}

func (e *MissingDataSourceError) Error() string {
	return fmt.Sprintf("missing data source %s (%s): %v", e.Source, e.URI, e.Err)
}

func (e *MissingDataSourceError) Unwrap() error {
	return e.Err
}
