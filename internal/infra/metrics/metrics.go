package metrics

import "strings"

// norm lowercases label values so dashboards don't split series on casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
