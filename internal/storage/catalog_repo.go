// internal/storage/catalog_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/domain"
)

// Specific errors for catalog operations
var (
	ErrDefinitionExists   = errors.New("test definition already exists")
	ErrDefinitionNotFound = errors.New("test definition not found")
	ErrTestCaseExists     = errors.New("a test case with this name already exists for the entity")
	ErrTestCaseNotFound   = errors.New("test case not found")
)

// FieldTestDefinition is the listing field that populates TestCase.TestDefinition.
const FieldTestDefinition = "testDefinition"

// --- Test Definition Operations ---

const definitionColumns = `id, name, display_name, fqn, description, entity_type, test_platforms, supported_data_types, parameter_definition`

// The id column is left untouched on conflict.
const upsertDefinitionSQL = `INSERT INTO test_definitions (` + definitionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(fqn) DO UPDATE SET
		name = excluded.name,
		display_name = excluded.display_name,
		description = excluded.description,
		entity_type = excluded.entity_type,
		test_platforms = excluded.test_platforms,
		supported_data_types = excluded.supported_data_types,
		parameter_definition = excluded.parameter_definition`

// CreateTestDefinition inserts a new test definition. An empty ID is generated.
func CreateTestDefinition(ctx context.Context, db *sql.DB, def domain.TestDefinition) (*domain.TestDefinition, error) {
	row, err := definitionRow(&def)
	if err != nil {
		return nil, err
	}
	sqlStatement := `INSERT INTO test_definitions (` + definitionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, sqlStatement, row...); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, fmt.Errorf("%w: '%s'", ErrDefinitionExists, def.FullyQualifiedName)
		}
		customLog.Errorf("Storage: Failed to insert test definition %s: %v", def.FullyQualifiedName, err)
		return nil, fmt.Errorf("database error during test definition creation: %w", err)
	}
	return &def, nil
}

// UpsertTestDefinition inserts def or replaces the definition with the same FQN,
// keeping its ID.
func UpsertTestDefinition(ctx context.Context, db *sql.DB, def domain.TestDefinition) (*domain.TestDefinition, error) {
	if def.ID == "" {
		if existing, err := FindTestDefinitionByFQN(ctx, db, def.FullyQualifiedName); err == nil {
			def.ID = existing.ID
		} else if !errors.Is(err, ErrDefinitionNotFound) {
			return nil, err
		}
	}
	row, err := definitionRow(&def)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, upsertDefinitionSQL, row...); err != nil {
		customLog.Errorf("Storage: Failed to upsert test definition %s: %v", def.FullyQualifiedName, err)
		return nil, fmt.Errorf("database error during test definition upsert: %w", err)
	}
	return &def, nil
}

// FindTestDefinitionByFQN retrieves one definition by fully-qualified name.
func FindTestDefinitionByFQN(ctx context.Context, db *sql.DB, fqn string) (*domain.TestDefinition, error) {
	sqlStatement := `SELECT ` + definitionColumns + ` FROM test_definitions WHERE fqn = ? LIMIT 1`
	def, err := scanDefinition(db.QueryRowContext(ctx, sqlStatement, fqn))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: '%s'", ErrDefinitionNotFound, fqn)
		}
		customLog.Errorf("Storage: Failed to find test definition %s: %v", fqn, err)
		return nil, fmt.Errorf("database error finding test definition: %w", err)
	}
	return def, nil
}

// ListTestDefinitions returns definitions matching filter, ordered by name.
// A definition without supported data types matches any data type.
func ListTestDefinitions(ctx context.Context, db *sql.DB, filter domain.TestDefinitionFilter) ([]domain.TestDefinition, error) {
	var (
		where []string
		args  []any
	)
	if filter.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, string(filter.EntityType))
	}
	if filter.TestPlatform != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(test_platforms) WHERE value = ?)")
		args = append(args, string(filter.TestPlatform))
	}
	if filter.SupportedDataType != "" {
		where = append(where, "(json_array_length(supported_data_types) = 0 OR EXISTS (SELECT 1 FROM json_each(supported_data_types) WHERE value = ?))")
		args = append(args, filter.SupportedDataType)
	}

	sqlStatement := `SELECT ` + definitionColumns + ` FROM test_definitions`
	if len(where) > 0 {
		sqlStatement += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStatement += " ORDER BY name, fqn LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(filter.Limit), filter.Offset)

	rows, err := db.QueryContext(ctx, sqlStatement, args...)
	if err != nil {
		customLog.Errorf("Storage: Failed to list test definitions: %v", err)
		return nil, fmt.Errorf("database error listing test definitions: %w", err)
	}
	defer rows.Close()

	definitions := []domain.TestDefinition{}
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			customLog.Errorf("Storage: Failed to scan test definition row: %v", err)
			return nil, fmt.Errorf("database error reading test definitions: %w", err)
		}
		definitions = append(definitions, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating test definitions: %w", err)
	}
	return definitions, nil
}

// --- Test Case Operations ---

const testCaseColumns = `id, name, fqn, description, entity_link, test_definition, test_suite, parameter_values, created_at`

// CreateTestCase stores a submitted test case. Names are unique per entity link.
func CreateTestCase(ctx context.Context, db *sql.DB, req domain.CreateTestCase) (*domain.TestCase, error) {
	link, err := core.ParseEntityLink(req.EntityLink)
	if err != nil {
		return nil, err
	}
	values := req.ParameterValues
	if values == nil {
		values = []domain.TestCaseParameterValue{}
	}
	encodedValues, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameter values: %w", err)
	}

	tc := &domain.TestCase{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		FullyQualifiedName: link.Target() + "." + req.Name,
		Description:        req.Description,
		EntityLink:         req.EntityLink,
		TestDefinition:     req.TestDefinition,
		TestSuite:          req.TestSuite,
		ParameterValues:    values,
		CreatedAt:          time.Now().UTC(),
	}

	sqlStatement := `INSERT INTO test_cases (` + testCaseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, sqlStatement, tc.ID, tc.Name, tc.FullyQualifiedName, tc.Description,
		tc.EntityLink, tc.TestDefinition, tc.TestSuite, string(encodedValues), tc.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return nil, fmt.Errorf("%w: '%s'", ErrDefinitionNotFound, req.TestDefinition)
			}
			return nil, fmt.Errorf("%w: '%s'", ErrTestCaseExists, req.Name)
		}
		customLog.Errorf("Storage: Failed to insert test case '%s' on %s: %v", req.Name, req.EntityLink, err)
		return nil, fmt.Errorf("database error during test case creation: %w", err)
	}
	return tc, nil
}

// FindTestCaseByID retrieves one test case.
func FindTestCaseByID(ctx context.Context, db *sql.DB, id string) (*domain.TestCase, error) {
	sqlStatement := `SELECT ` + testCaseColumns + ` FROM test_cases WHERE id = ? LIMIT 1`
	tc, err := scanTestCase(db.QueryRowContext(ctx, sqlStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTestCaseNotFound
		}
		customLog.Errorf("Storage: Failed to find test case %s: %v", id, err)
		return nil, fmt.Errorf("database error finding test case: %w", err)
	}
	return tc, nil
}

// ListTestCases returns test cases, oldest first. The test definition reference
// is only filled in when filter.Fields asks for it.
func ListTestCases(ctx context.Context, db *sql.DB, filter domain.TestCaseFilter) ([]domain.TestCase, error) {
	sqlStatement := `SELECT ` + testCaseColumns + ` FROM test_cases`
	var args []any
	if filter.EntityLink != "" {
		sqlStatement += " WHERE entity_link = ?"
		args = append(args, filter.EntityLink)
	}
	sqlStatement += " ORDER BY created_at, name LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(filter.Limit), filter.Offset)

	rows, err := db.QueryContext(ctx, sqlStatement, args...)
	if err != nil {
		customLog.Errorf("Storage: Failed to list test cases: %v", err)
		return nil, fmt.Errorf("database error listing test cases: %w", err)
	}
	defer rows.Close()

	withDefinition := slices.Contains(filter.Fields, FieldTestDefinition)
	testCases := []domain.TestCase{}
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			customLog.Errorf("Storage: Failed to scan test case row: %v", err)
			return nil, fmt.Errorf("database error reading test cases: %w", err)
		}
		if !withDefinition {
			tc.TestDefinition = ""
		}
		testCases = append(testCases, *tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating test cases: %w", err)
	}
	return testCases, nil
}

// --- Row helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func definitionRow(def *domain.TestDefinition) ([]any, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	platforms, err := marshalList(def.TestPlatforms)
	if err != nil {
		return nil, err
	}
	dataTypes, err := marshalList(def.SupportedDataTypes)
	if err != nil {
		return nil, err
	}
	params, err := marshalList(def.ParameterDefinition)
	if err != nil {
		return nil, err
	}
	return []any{def.ID, def.Name, def.DisplayName, def.FullyQualifiedName, def.Description,
		string(def.EntityType), platforms, dataTypes, params}, nil
}

func scanDefinition(row rowScanner) (*domain.TestDefinition, error) {
	var (
		def                         domain.TestDefinition
		entityType                  string
		platforms, dataTypes, param string
	)
	if err := row.Scan(&def.ID, &def.Name, &def.DisplayName, &def.FullyQualifiedName, &def.Description,
		&entityType, &platforms, &dataTypes, &param); err != nil {
		return nil, err
	}
	def.EntityType = domain.EntityType(entityType)
	if err := unmarshalList(platforms, &def.TestPlatforms); err != nil {
		return nil, err
	}
	if err := unmarshalList(dataTypes, &def.SupportedDataTypes); err != nil {
		return nil, err
	}
	if err := unmarshalList(param, &def.ParameterDefinition); err != nil {
		return nil, err
	}
	return &def, nil
}

func scanTestCase(row rowScanner) (*domain.TestCase, error) {
	var (
		tc     domain.TestCase
		values string
	)
	if err := row.Scan(&tc.ID, &tc.Name, &tc.FullyQualifiedName, &tc.Description, &tc.EntityLink,
		&tc.TestDefinition, &tc.TestSuite, &values, &tc.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalList(values, &tc.ParameterValues); err != nil {
		return nil, err
	}
	return &tc, nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list column: %w", err)
	}
	return string(encoded), nil
}

func unmarshalList[T any](raw string, dest *[]T) error {
	if raw == "" || raw == "[]" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to decode list column: %w", err)
	}
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > core.MaxLimit {
		return core.DefaultLimit
	}
	return limit
}
