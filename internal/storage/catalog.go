// internal/storage/catalog.go
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/Annany2002/nebula-dq/internal/domain"
	"github.com/Annany2002/nebula-dq/internal/metrics"
)

// SourceSQLite labels catalog metrics for the local store.
const SourceSQLite = "sqlite"

// Catalog serves test definitions and test cases from the local SQLite store.
type Catalog struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

// NewCatalog wraps an open catalog database. m may be nil.
func NewCatalog(db *sql.DB, m *metrics.Metrics) *Catalog {
	return &Catalog{DB: db, Metrics: m}
}

func (c *Catalog) ListTestDefinitions(ctx context.Context, filter domain.TestDefinitionFilter) ([]domain.TestDefinition, error) {
	start := time.Now()
	defs, err := ListTestDefinitions(ctx, c.DB, filter)
	c.Metrics.RecordCatalogFetch(SourceSQLite, "testDefinitions", err, time.Since(start))
	return defs, err
}

func (c *Catalog) ListTestCases(ctx context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error) {
	start := time.Now()
	cases, err := ListTestCases(ctx, c.DB, filter)
	c.Metrics.RecordCatalogFetch(SourceSQLite, "testCases", err, time.Since(start))
	return cases, err
}

// CreateTestDefinition stores a new definition.
func (c *Catalog) CreateTestDefinition(ctx context.Context, def domain.TestDefinition) (*domain.TestDefinition, error) {
	return CreateTestDefinition(ctx, c.DB, def)
}

// CreateTestCase stores a submitted test case.
func (c *Catalog) CreateTestCase(ctx context.Context, req domain.CreateTestCase) (*domain.TestCase, error) {
	return CreateTestCase(ctx, c.DB, req)
}
