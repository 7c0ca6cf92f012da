package testcase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

// ErrParameterShape is returned when a parameter value does not have the
// shape its definition asks for (a list for ARRAY, a single value otherwise).
var ErrParameterShape = errors.New("parameter value has the wrong shape")

// ListItem is one entry of a list-valued parameter as the form submits it.
type ListItem struct {
	Value string `json:"value"`
}

// ParameterInput is the raw value of one parameter field: either a single
// string or an ordered list of {value} records.
type ParameterInput struct {
	Scalar string
	Items  []ListItem
	IsList bool
}

// Scalar wraps a single value.
func Scalar(value string) ParameterInput {
	return ParameterInput{Scalar: value}
}

// List wraps an ordered list of values.
func List(values ...string) ParameterInput {
	items := make([]ListItem, len(values))
	for i, v := range values {
		items[i] = ListItem{Value: v}
	}
	return ParameterInput{Items: items, IsList: true}
}

// Values returns the plain strings of a list input, in order.
func (p ParameterInput) Values() []string {
	out := make([]string, len(p.Items))
	for i, item := range p.Items {
		out[i] = item.Value
	}
	return out
}

// IsEmpty reports whether nothing was entered.
func (p ParameterInput) IsEmpty() bool {
	if p.IsList {
		return len(p.Items) == 0
	}
	return p.Scalar == ""
}

// MarshalJSON writes a list as [{"value":...}] and a scalar as a string.
func (p ParameterInput) MarshalJSON() ([]byte, error) {
	if p.IsList {
		items := p.Items
		if items == nil {
			items = []ListItem{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(p.Scalar)
}

// UnmarshalJSON accepts a string, a number or bool (kept as its literal text),
// null, or an array whose elements are {"value": ...} objects or bare strings.
func (p *ParameterInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*p = ParameterInput{}

	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return nil
	case trimmed[0] == '"':
		return json.Unmarshal(trimmed, &p.Scalar)
	case trimmed[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		p.IsList = true
		p.Items = make([]ListItem, 0, len(raw))
		for _, elem := range raw {
			item, err := decodeListItem(elem)
			if err != nil {
				return err
			}
			p.Items = append(p.Items, item)
		}
		return nil
	case trimmed[0] == '{':
		return fmt.Errorf("%w: objects are not accepted as parameter values", ErrParameterShape)
	default:
		p.Scalar = string(trimmed)
		return nil
	}
}

func decodeListItem(elem json.RawMessage) (ListItem, error) {
	elem = bytes.TrimSpace(elem)
	if len(elem) > 0 && elem[0] == '"' {
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			return ListItem{}, err
		}
		return ListItem{Value: s}, nil
	}
	var item ListItem
	if err := json.Unmarshal(elem, &item); err != nil {
		return ListItem{}, fmt.Errorf("%w: list entries must be strings or {\"value\": string}", ErrParameterShape)
	}
	return item, nil
}

// --- Array encoding ---

// EncodeArray serializes the plain string list as JSON, preserving order.
func EncodeArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode array parameter: %w", err)
	}
	return string(encoded), nil
}

// DecodeArray is the inverse of EncodeArray. An empty string decodes to an empty list.
func DecodeArray(encoded string) ([]string, error) {
	if encoded == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParameterShape, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// usesArrayEncoding reports whether parameter values are sent as JSON lists.
// Only the first parameter definition is consulted, and its data type then
// decides the encoding of every parameter of the test.
func usesArrayEncoding(def *domain.TestDefinition) bool {
	return def != nil && len(def.ParameterDefinition) > 0 &&
		def.ParameterDefinition[0].DataType == domain.TestDataTypeArray
}

// parameterOrder lists the entered parameter names: definition order first,
// then any names the definition does not know, alphabetically.
func parameterOrder(def *domain.TestDefinition, params map[string]ParameterInput) []string {
	names := make([]string, 0, len(params))
	seen := make(map[string]bool, len(params))
	if def != nil {
		for _, pd := range def.ParameterDefinition {
			if _, ok := params[pd.Name]; ok && !seen[pd.Name] {
				names = append(names, pd.Name)
				seen[pd.Name] = true
			}
		}
	}
	var rest []string
	for name := range params {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// encodeParameter converts one input into its wire value.
func encodeParameter(arrayMode bool, input ParameterInput) (string, error) {
	if arrayMode {
		if !input.IsList {
			if input.Scalar == "" {
				return EncodeArray(nil)
			}
			return "", fmt.Errorf("%w: expected a list of values", ErrParameterShape)
		}
		return EncodeArray(input.Values())
	}
	if input.IsList {
		return "", fmt.Errorf("%w: expected a single value", ErrParameterShape)
	}
	return input.Scalar, nil
}

// decodeParameter turns a stored parameter value back into form input.
func decodeParameter(arrayMode bool, value string) ParameterInput {
	if !arrayMode {
		return Scalar(value)
	}
	values, err := DecodeArray(value)
	if err != nil {
		customLog.Warnf("Testcase: stored array parameter is not a JSON list, keeping raw value: %v", err)
		return Scalar(value)
	}
	return List(values...)
}
