package testcase

import (
	"github.com/Annany2002/nebula-dq/internal/domain"
)

// ActiveTestType returns the test definition FQN the form is working with.
// An edit-mode test suite reference takes precedence over the live selection.
func ActiveTestType(initial *domain.CreateTestCase, selected string) string {
	if initial != nil && initial.TestSuite != "" {
		return initial.TestSuite
	}
	return selected
}

// SelectDefinition looks the active test type up by fully-qualified name.
// It returns nil when nothing matches.
func SelectDefinition(initial *domain.CreateTestCase, selected string, definitions []domain.TestDefinition) *domain.TestDefinition {
	testType := ActiveTestType(initial, selected)
	if testType == "" {
		return nil
	}
	for i := range definitions {
		if definitions[i].FullyQualifiedName == testType {
			def := definitions[i]
			return &def
		}
	}
	return nil
}

// ParameterField describes one input of the parameter sub-form.
type ParameterField struct {
	Name        string              `json:"name"`
	Label       string              `json:"label"`
	DataType    domain.TestDataType `json:"dataType,omitempty"`
	Description string              `json:"description,omitempty"`
	Required    bool                `json:"required"`
	// List is true when the value is submitted as a list. It follows the
	// encoder, which only looks at the first parameter definition.
	List bool `json:"list"`
}

// ParameterForm is what the parameter sub-form renderer consumes.
type ParameterForm struct {
	TestDefinition string           `json:"testDefinition"`
	Fields         []ParameterField `json:"fields"`
	Columns        []domain.Column  `json:"columns"`
}

// BuildParameterForm derives the parameter sub-form for def, or nil when the
// definition has no parameters.
func BuildParameterForm(def *domain.TestDefinition, table domain.Table) *ParameterForm {
	if def == nil || len(def.ParameterDefinition) == 0 {
		return nil
	}
	arrayMode := usesArrayEncoding(def)
	form := &ParameterForm{
		TestDefinition: def.FullyQualifiedName,
		Fields:         make([]ParameterField, 0, len(def.ParameterDefinition)),
		Columns:        table.Columns,
	}
	for _, pd := range def.ParameterDefinition {
		label := pd.DisplayName
		if label == "" {
			label = pd.Name
		}
		form.Fields = append(form.Fields, ParameterField{
			Name:        pd.Name,
			Label:       label,
			DataType:    pd.DataType,
			Description: pd.Description,
			Required:    pd.Required,
			List:        arrayMode,
		})
	}
	return form
}
