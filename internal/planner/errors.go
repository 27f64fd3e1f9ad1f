package planner

import (
	"fmt"
	"strings"
)

// MaxSuggestions caps the site names returned with SiteNotFoundError
const MaxSuggestions = 10

// SiteNotFoundError means no observation matched the query
type SiteNotFoundError struct {
	Query      string
	KnownSites []string
}

func (e *SiteNotFoundError) Error() string {
	return fmt.Sprintf("mine '%s' not found", e.Query)
}

// ComputationError wraps any failure after a site was resolved.
// Callers degrade to a simulated plan.
type ComputationError struct {
	Site   string
	Reason string
	Err    error
}

func (e *ComputationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan computation failed for %s: %s", e.Site, e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
