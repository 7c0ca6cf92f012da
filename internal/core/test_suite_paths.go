// internal/core/test_suite_paths.go
package core

import (
	"net/url"
	"strings"
)

// Route fragments used by the catalog UI.
const (
	EntityTabProfiler        = "profiler"
	ProfilerTabDataQuality   = "data-quality"
	entityDetailsTablePrefix = "/table"
	testSuitesPrefix         = "/test-suites"
	fqnSeparator             = "."
)

// EntityDetailsPath returns /{entityType}/{fqn}[/{tab}] with the fqn path-escaped.
func EntityDetailsPath(entityType, fqn, tab string) string {
	path := "/" + strings.Trim(entityType, "/") + "/" + url.PathEscape(fqn)
	if tab != "" {
		path += "/" + tab
	}
	return path
}

// TestSuitePath returns the generic page of a standalone test suite.
func TestSuitePath(fqn string) string {
	return testSuitesPrefix + "/" + url.PathEscape(fqn)
}

// TestSuiteDetailsPath picks the page for a test suite. Executable suites are
// bound to one table and live on that table's profiler tab, so they get the
// profiler path with the data-quality sub-tab selected.
func TestSuiteDetailsPath(isExecutable bool, fqn string) string {
	if !isExecutable {
		return TestSuitePath(fqn)
	}
	query := url.Values{"activeTab": []string{ProfilerTabDataQuality}}
	return EntityDetailsPath(strings.TrimPrefix(entityDetailsTablePrefix, "/"), fqn, EntityTabProfiler) + "?" + query.Encode()
}

// TestSuiteFQN drops the leaf segment of a dotted FQN, returning the parent
// qualifier. Single-segment names come back unchanged.
func TestSuiteFQN(fqn string) string {
	parts := strings.Split(fqn, fqnSeparator)
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, fqnSeparator)
}
