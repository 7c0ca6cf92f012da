// internal/core/validation.go
package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

// ErrBadRequest marks malformed input coming from a caller.
var ErrBadRequest = errors.New("bad request")

// Regular expression for plain identifiers such as field names in ?fields=
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Characters swapped for '_' when an existing name pre-fills a form.
var specialCharRegex = regexp.MustCompile(`[&/\\#, +()$~%.'":*?<>{}]`)

// Allowed parameter data types (uppercase keys and values)
var allowedDataTypes = map[string]domain.TestDataType{
	"NUMBER":    domain.TestDataTypeNumber,
	"INT":       domain.TestDataTypeInt,
	"FLOAT":     domain.TestDataTypeFloat,
	"DOUBLE":    domain.TestDataTypeDouble,
	"DECIMAL":   domain.TestDataTypeDecimal,
	"TIMESTAMP": domain.TestDataTypeTimestamp,
	"TIME":      domain.TestDataTypeTime,
	"DATE":      domain.TestDataTypeDate,
	"DATETIME":  domain.TestDataTypeDatetime,
	"ARRAY":     domain.TestDataTypeArray,
	"MAP":       domain.TestDataTypeMap,
	"SET":       domain.TestDataTypeSet,
	"STRING":    domain.TestDataTypeString,
	"BOOLEAN":   domain.TestDataTypeBoolean,
}

// IsValidIdentifier checks if a string is a valid identifier (e.g., a field name)
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// CompileEntityNamePattern compiles the configured entity-name pattern.
func CompileEntityNamePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: entity name pattern is empty", ErrBadRequest)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid entity name pattern: %v", ErrBadRequest, err)
	}
	return re, nil
}

// NormalizeAndValidateType checks if a string is an allowed parameter data type,
// returning the normalized uppercase version.
func NormalizeAndValidateType(dataType string) (domain.TestDataType, bool) {
	normalized, ok := allowedDataTypes[strings.ToUpper(strings.TrimSpace(dataType))]
	return normalized, ok
}

// NormalizeEntityType accepts "table"/"column" in any case.
func NormalizeEntityType(raw string) (domain.EntityType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(domain.EntityTypeTable):
		return domain.EntityTypeTable, true
	case string(domain.EntityTypeColumn):
		return domain.EntityTypeColumn, true
	}
	return "", false
}

// ReplaceSpecialChars swaps spaces and URL-unsafe punctuation for '_'.
func ReplaceSpecialChars(name string) string {
	return specialCharRegex.ReplaceAllString(name, "_")
}
