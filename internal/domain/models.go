// internal/domain/models.go
package domain

import "time"

// TestDataType is the data-type tag carried by a test parameter definition.
type TestDataType string

const (
	TestDataTypeNumber    TestDataType = "NUMBER"
	TestDataTypeInt       TestDataType = "INT"
	TestDataTypeFloat     TestDataType = "FLOAT"
	TestDataTypeDouble    TestDataType = "DOUBLE"
	TestDataTypeDecimal   TestDataType = "DECIMAL"
	TestDataTypeTimestamp TestDataType = "TIMESTAMP"
	TestDataTypeTime      TestDataType = "TIME"
	TestDataTypeDate      TestDataType = "DATE"
	TestDataTypeDatetime  TestDataType = "DATETIME"
	TestDataTypeArray     TestDataType = "ARRAY"
	TestDataTypeMap       TestDataType = "MAP"
	TestDataTypeSet       TestDataType = "SET"
	TestDataTypeString    TestDataType = "STRING"
	TestDataTypeBoolean   TestDataType = "BOOLEAN"
)

// EntityType is the kind of entity a test definition applies to.
type EntityType string

const (
	EntityTypeTable  EntityType = "TABLE"
	EntityTypeColumn EntityType = "COLUMN"
)

// TestPlatform identifies the engine that runs a test definition.
type TestPlatform string

const (
	TestPlatformOpenMetadata TestPlatform = "OpenMetadata"
	TestPlatformGreatExp     TestPlatform = "GreatExpectations"
	TestPlatformDBT          TestPlatform = "DBT"
	TestPlatformDeequ        TestPlatform = "Deequ"
	TestPlatformSoda         TestPlatform = "Soda"
	TestPlatformOther        TestPlatform = "Other"
)

// TestCaseParameterDefinition describes one parameter of a test definition.
type TestCaseParameterDefinition struct {
	Name        string       `json:"name" yaml:"name"`
	DisplayName string       `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	DataType    TestDataType `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool         `json:"required,omitempty" yaml:"required,omitempty"`
}

// TestDefinition is reusable reference data describing a data-quality check.
type TestDefinition struct {
	ID                  string                        `json:"id,omitempty" yaml:"id,omitempty"`
	Name                string                        `json:"name" yaml:"name"`
	DisplayName         string                        `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	FullyQualifiedName  string                        `json:"fullyQualifiedName" yaml:"fullyQualifiedName"`
	Description         string                        `json:"description,omitempty" yaml:"description,omitempty"`
	EntityType          EntityType                    `json:"entityType" yaml:"entityType"`
	TestPlatforms       []TestPlatform                `json:"testPlatforms,omitempty" yaml:"testPlatforms,omitempty"`
	SupportedDataTypes  []string                      `json:"supportedDataTypes,omitempty" yaml:"supportedDataTypes,omitempty"`
	ParameterDefinition []TestCaseParameterDefinition `json:"parameterDefinition,omitempty" yaml:"parameterDefinition,omitempty"`
}

// EntityName returns the display name, falling back to the name.
func (d TestDefinition) EntityName() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// TestCaseParameterValue is a name/value pair sent with a test case.
// Array parameters carry a JSON-encoded list of strings in Value.
type TestCaseParameterValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CreateTestCase is the create/update request produced by the test case form.
type CreateTestCase struct {
	Name            string                   `json:"name"`
	EntityLink      string                   `json:"entityLink"`
	ParameterValues []TestCaseParameterValue `json:"parameterValues"`
	TestDefinition  string                   `json:"testDefinition"`
	Description     string                   `json:"description"`
	TestSuite       string                   `json:"testSuite"`
}

// TestCase is an existing test case bound to a table or column.
type TestCase struct {
	ID                 string                   `json:"id"`
	Name               string                   `json:"name"`
	FullyQualifiedName string                   `json:"fullyQualifiedName,omitempty"`
	Description        string                   `json:"description,omitempty"`
	EntityLink         string                   `json:"entityLink"`
	TestDefinition     string                   `json:"testDefinition"`
	TestSuite          string                   `json:"testSuite,omitempty"`
	ParameterValues    []TestCaseParameterValue `json:"parameterValues,omitempty"`
	CreatedAt          time.Time                `json:"createdAt"`
}

// Column is the subset of column metadata the form needs.
type Column struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	DataType           string `json:"dataType"`
}

// Table is the table a test case form is opened for.
type Table struct {
	Name               string   `json:"name"`
	FullyQualifiedName string   `json:"fullyQualifiedName"`
	Columns            []Column `json:"columns"`
}

// ColumnByName finds a column by its short name.
func (t Table) ColumnByName(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// --- Catalog filters ---

// TestDefinitionFilter narrows a test definition listing.
type TestDefinitionFilter struct {
	Limit             int
	Offset            int
	EntityType        EntityType
	TestPlatform      TestPlatform
	SupportedDataType string
}

// TestCaseFilter narrows a test case listing.
type TestCaseFilter struct {
	Fields     []string
	Limit      int
	Offset     int
	EntityLink string
}
