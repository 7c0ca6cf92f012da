package testcase

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/domain"
	"github.com/Annany2002/nebula-dq/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// SuffixLength is the number of random characters in a generated name.
const SuffixLength = 4

// FormContext is the fixed context a form is opened in.
type FormContext struct {
	Table        domain.Table           `json:"table"`
	ColumnScoped bool                   `json:"columnScoped"`
	InitialValue *domain.CreateTestCase `json:"initialValue,omitempty"`
}

// Draft is the transient form state.
type Draft struct {
	Column     string                    `json:"column,omitempty"`
	TestName   string                    `json:"testName,omitempty"`
	TestTypeID string                    `json:"testTypeId,omitempty"`
	Params     map[string]ParameterInput `json:"params,omitempty"`
}

func (d Draft) clone() Draft {
	out := d
	if d.Params != nil {
		out.Params = make(map[string]ParameterInput, len(d.Params))
		for k, v := range d.Params {
			out.Params[k] = v
		}
	}
	return out
}

// selectedColumn is the column a draft is bound to, if the form is column-scoped.
func (fc FormContext) selectedColumn(d Draft) string {
	if fc.ColumnScoped {
		return d.Column
	}
	return ""
}

// EntityLinkFor returns the link a draft's test case will be attached to.
func EntityLinkFor(fc FormContext, d Draft) core.EntityLink {
	if column := fc.selectedColumn(d); column != "" {
		return core.NewColumnLink(fc.Table.FullyQualifiedName, column)
	}
	return core.NewTableLink(fc.Table.FullyQualifiedName)
}

// --- Description ---

// DescriptionSource supplies the serialized rich-text description.
type DescriptionSource interface {
	Content() string
}

// DescriptionEditor holds the description text of one form.
type DescriptionEditor struct {
	mu      sync.Mutex
	content string
}

// NewDescriptionEditor starts the editor with an optional initial value.
func NewDescriptionEditor(initial string) *DescriptionEditor {
	return &DescriptionEditor{content: initial}
}

// SetContent replaces the editor content.
func (e *DescriptionEditor) SetContent(content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.content = content
}

// Content implements DescriptionSource.
func (e *DescriptionEditor) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// --- Builder ---

// Builder turns a draft into a CreateTestCase request.
type Builder struct {
	suffix core.SuffixSource
}

// NewBuilder creates a Builder. A nil source falls back to a randomly seeded one.
func NewBuilder(suffix core.SuffixSource) *Builder {
	if suffix == nil {
		suffix = core.NewAlphanumericSource()
	}
	return &Builder{suffix: suffix}
}

// ResolveName returns the trimmed user name, or synthesizes
// {column|table}_{snake_case(test type)}_{suffix} when none was entered.
func (b *Builder) ResolveName(fc FormContext, d Draft) string {
	if name := strings.TrimSpace(d.TestName); name != "" {
		return name
	}
	prefix := fc.selectedColumn(d)
	if prefix == "" {
		prefix = fc.Table.Name
	}
	return fmt.Sprintf("%s_%s_%s", prefix, core.SnakeCase(d.TestTypeID), b.suffix.RandomString(SuffixLength))
}

// Build produces the request for a validated draft. Parameter values whose
// shape does not match the definition are rejected with ErrParameterShape.
func (b *Builder) Build(fc FormContext, d Draft, def *domain.TestDefinition, desc DescriptionSource) (*domain.CreateTestCase, error) {
	return b.build(fc, d, def, desc, true)
}

// BuildDraft produces a best-effort request from an unvalidated draft, as sent
// back when the form is cancelled. Mismatched parameter values are left out.
func (b *Builder) BuildDraft(fc FormContext, d Draft, def *domain.TestDefinition, desc DescriptionSource) *domain.CreateTestCase {
	payload, _ := b.build(fc, d, def, desc, false)
	return payload
}

func (b *Builder) build(fc FormContext, d Draft, def *domain.TestDefinition, desc DescriptionSource, strict bool) (*domain.CreateTestCase, error) {
	arrayMode := usesArrayEncoding(def)
	values := make([]domain.TestCaseParameterValue, 0, len(d.Params))
	for _, name := range parameterOrder(def, d.Params) {
		value, err := encodeParameter(arrayMode, d.Params[name])
		if err != nil {
			if strict {
				return nil, fmt.Errorf("parameter '%s': %w", name, err)
			}
			customLog.Debugf("Testcase: dropping parameter '%s' from draft payload: %v", name, err)
			continue
		}
		values = append(values, domain.TestCaseParameterValue{Name: name, Value: value})
	}

	description := ""
	if desc != nil {
		description = desc.Content()
	}

	return &domain.CreateTestCase{
		Name:            b.ResolveName(fc, d),
		EntityLink:      EntityLinkFor(fc, d).String(),
		ParameterValues: values,
		TestDefinition:  d.TestTypeID,
		Description:     description,
		TestSuite:       "",
	}, nil
}

// IsParameterShapeError reports whether err came from a mismatched parameter value.
func IsParameterShapeError(err error) bool {
	return errors.Is(err, ErrParameterShape)
}
