// api/models/form_models.go
package models

import (
	"github.com/Annany2002/nebula-dq/internal/domain"
	"github.com/Annany2002/nebula-dq/internal/testcase"
)

// --- Form Request Structs ---

// ColumnRequest is one column of the table a form is opened for
type ColumnRequest struct {
	Name               string `json:"name" binding:"required"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	DataType           string `json:"dataType"`
}

// TableRequest is the table a form is opened for
type TableRequest struct {
	Name               string          `json:"name" binding:"required"`
	FullyQualifiedName string          `json:"fullyQualifiedName" binding:"required"`
	Columns            []ColumnRequest `json:"columns" binding:"dive"`
}

// ToDomain converts the request. A column without an FQN gets "<table>.<column>".
func (t TableRequest) ToDomain() domain.Table {
	table := domain.Table{
		Name:               t.Name,
		FullyQualifiedName: t.FullyQualifiedName,
		Columns:            make([]domain.Column, 0, len(t.Columns)),
	}
	for _, col := range t.Columns {
		fqn := col.FullyQualifiedName
		if fqn == "" {
			fqn = t.FullyQualifiedName + "." + col.Name
		}
		table.Columns = append(table.Columns, domain.Column{Name: col.Name, FullyQualifiedName: fqn, DataType: col.DataType})
	}
	return table
}

// OpenFormRequest starts a create (no initialValue) or edit form
type OpenFormRequest struct {
	Table        TableRequest           `json:"table" binding:"required"`
	ColumnScoped bool                   `json:"columnScoped"`
	InitialValue *domain.CreateTestCase `json:"initialValue"`
}

// --- Form Response Structs ---

// FormResponse carries the form state and the events the request emitted
type FormResponse struct {
	Form   testcase.FormState `json:"form"`
	Events []testcase.Event   `json:"events"`
}

// ValidationResponse is returned by the validate endpoint and by rejected submits
type ValidationResponse struct {
	Valid  bool                 `json:"valid"`
	Errors testcase.FieldErrors `json:"errors,omitempty"`
}

// SubmitResponse is returned once a form was accepted
type SubmitResponse struct {
	Payload  *domain.CreateTestCase `json:"payload"`
	TestCase *domain.TestCase       `json:"testCase,omitempty"`
}

// CancelResponse carries the unvalidated payload of a cancelled form
type CancelResponse struct {
	Payload *domain.CreateTestCase `json:"payload"`
}

// TestSuitePathQuery is bound from the query string of the path endpoint
type TestSuitePathQuery struct {
	FQN        string `form:"fqn" binding:"required"`
	Executable bool   `form:"executable"`
}

// TestSuitePathResponse is the details route of a test suite
type TestSuitePathResponse struct {
	Path      string `json:"path"`
	ParentFQN string `json:"parentFqn"`
}
