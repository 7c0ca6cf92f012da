package testcase

import (
	"context"
	"slices"
	"sync"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

// fakeCatalog is an in-memory Catalog. When gate is set, ListTestDefinitions
// signals on started and then waits for gate to be closed.
type fakeCatalog struct {
	mu          sync.Mutex
	definitions []domain.TestDefinition
	testCases   map[string][]domain.TestCase
	defErr      error
	caseErr     error
	defFilters  []domain.TestDefinitionFilter
	caseCalls   int

	gate    chan struct{}
	started chan struct{}
}

func (f *fakeCatalog) ListTestDefinitions(ctx context.Context, filter domain.TestDefinitionFilter) ([]domain.TestDefinition, error) {
	f.mu.Lock()
	f.defFilters = append(f.defFilters, filter)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.defErr != nil {
		return nil, f.defErr
	}
	var out []domain.TestDefinition
	for _, def := range f.definitions {
		if filter.EntityType != "" && def.EntityType != filter.EntityType {
			continue
		}
		if filter.SupportedDataType != "" && len(def.SupportedDataTypes) > 0 &&
			!slices.Contains(def.SupportedDataTypes, filter.SupportedDataType) {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

func (f *fakeCatalog) ListTestCases(_ context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caseCalls++
	if f.caseErr != nil {
		return nil, f.caseErr
	}
	return append([]domain.TestCase(nil), f.testCases[filter.EntityLink]...), nil
}

func (f *fakeCatalog) lastDefinitionFilter() domain.TestDefinitionFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.defFilters) == 0 {
		return domain.TestDefinitionFilter{}
	}
	return f.defFilters[len(f.defFilters)-1]
}

// --- Fixtures ---

func ordersTable() domain.Table {
	return domain.Table{
		Name:               "orders",
		FullyQualifiedName: "svc.db.sales.orders",
		Columns: []domain.Column{
			{Name: "id", FullyQualifiedName: "svc.db.sales.orders.id", DataType: "INT"},
			{Name: "email", FullyQualifiedName: "svc.db.sales.orders.email", DataType: "STRING"},
		},
	}
}

func uniqueDefinition() domain.TestDefinition {
	return domain.TestDefinition{
		Name:               "columnValuesToBeUnique",
		FullyQualifiedName: "columnValuesToBeUnique",
		EntityType:         domain.EntityTypeColumn,
		TestPlatforms:      []domain.TestPlatform{domain.TestPlatformOpenMetadata},
	}
}

func inSetDefinition() domain.TestDefinition {
	return domain.TestDefinition{
		Name:               "columnValuesToBeInSet",
		FullyQualifiedName: "columnValuesToBeInSet",
		EntityType:         domain.EntityTypeColumn,
		TestPlatforms:      []domain.TestPlatform{domain.TestPlatformOpenMetadata},
		SupportedDataTypes: []string{"STRING"},
		ParameterDefinition: []domain.TestCaseParameterDefinition{
			{Name: "allowedValues", DisplayName: "Allowed Values", DataType: domain.TestDataTypeArray, Required: true},
		},
	}
}

func rowCountDefinition() domain.TestDefinition {
	return domain.TestDefinition{
		Name:               "tableRowCountToBeBetween",
		FullyQualifiedName: "tableRowCountToBeBetween",
		EntityType:         domain.EntityTypeTable,
		TestPlatforms:      []domain.TestPlatform{domain.TestPlatformOpenMetadata},
		ParameterDefinition: []domain.TestCaseParameterDefinition{
			{Name: "minValue", DataType: domain.TestDataTypeInt},
			{Name: "maxValue", DataType: domain.TestDataTypeInt},
		},
	}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		definitions: []domain.TestDefinition{uniqueDefinition(), inSetDefinition(), rowCountDefinition()},
		testCases:   map[string][]domain.TestCase{},
	}
}
