package models

import (
	"sort"
	"strings"
)

// ValidationErrors accumulates field-level validation failures. It is the
// local, pre-submission error class: requests carrying one are never sent to
// the authority.
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, reason string) {
	v[field] = reason
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when no failures were recorded.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
