// internal/core/query_params.go
package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

// Paging bounds for listing endpoints.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ListQueryOptions holds parsed paging and field selection.
type ListQueryOptions struct {
	Limit  int
	Offset int
	Fields []string // Extra fields to include (empty = defaults)
}

// ParseListQueryOptions reads ?limit=&offset=&fields= from a listing request.
// A missing limit falls back to defaultLimit, itself capped at MaxLimit.
func ParseListQueryOptions(queryParams url.Values, defaultLimit int) (*ListQueryOptions, error) {
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	limit, err := intParam(queryParams, "limit", defaultLimit, 1, MaxLimit)
	if err != nil {
		return nil, err
	}
	offset, err := intParam(queryParams, "offset", 0, 0, -1)
	if err != nil {
		return nil, err
	}
	opts := &ListQueryOptions{Limit: limit, Offset: offset}

	for _, field := range strings.Split(queryParams.Get("fields"), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if !IsValidIdentifier(field) {
			return nil, fmt.Errorf("%w: invalid 'fields' parameter: '%s' is not a valid field name", ErrBadRequest, field)
		}
		opts.Fields = append(opts.Fields, field)
	}
	return opts, nil
}

// intParam parses an optional integer parameter within [lo, hi]; hi < 0 means unbounded.
func intParam(queryParams url.Values, name string, fallback, lo, hi int) (int, error) {
	raw := queryParams.Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%w: invalid '%s' parameter: must be an integer", ErrBadRequest, name)
	case value < lo:
		return 0, fmt.Errorf("%w: invalid '%s' parameter: must be at least %d", ErrBadRequest, name, lo)
	case hi >= 0 && value > hi:
		return 0, fmt.Errorf("%w: invalid '%s' parameter: maximum is %d", ErrBadRequest, name, hi)
	}
	return value, nil
}

// ParseTestDefinitionFilter reads ?entityType=&testPlatform=&supportedDataType= plus paging.
func ParseTestDefinitionFilter(queryParams url.Values, defaultLimit int) (domain.TestDefinitionFilter, error) {
	opts, err := ParseListQueryOptions(queryParams, defaultLimit)
	if err != nil {
		return domain.TestDefinitionFilter{}, err
	}
	filter := domain.TestDefinitionFilter{
		Limit:        opts.Limit,
		Offset:       opts.Offset,
		TestPlatform: domain.TestPlatform(strings.TrimSpace(queryParams.Get("testPlatform"))),
	}

	if raw := queryParams.Get("entityType"); raw != "" {
		entityType, ok := NormalizeEntityType(raw)
		if !ok {
			return domain.TestDefinitionFilter{}, fmt.Errorf("%w: invalid 'entityType' parameter: must be 'TABLE' or 'COLUMN'", ErrBadRequest)
		}
		filter.EntityType = entityType
	}

	if raw := strings.TrimSpace(queryParams.Get("supportedDataType")); raw != "" {
		filter.SupportedDataType = strings.ToUpper(raw)
	}

	return filter, nil
}

// ParseTestCaseFilter reads ?entityLink= plus paging and field selection.
func ParseTestCaseFilter(queryParams url.Values, defaultLimit int) (domain.TestCaseFilter, error) {
	opts, err := ParseListQueryOptions(queryParams, defaultLimit)
	if err != nil {
		return domain.TestCaseFilter{}, err
	}
	filter := domain.TestCaseFilter{
		Fields: opts.Fields,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if raw := strings.TrimSpace(queryParams.Get("entityLink")); raw != "" {
		if _, err := ParseEntityLink(raw); err != nil {
			return domain.TestCaseFilter{}, err
		}
		filter.EntityLink = raw
	}
	return filter, nil
}
