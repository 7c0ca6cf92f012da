package testcase

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("decode(encode(list)) keeps values and order", prop.ForAll(
		func(values []string) bool {
			encoded, err := EncodeArray(values)
			if err != nil {
				return false
			}
			decoded, err := DecodeArray(encoded)
			if err != nil {
				return false
			}
			if len(values) == 0 {
				return len(decoded) == 0
			}
			return reflect.DeepEqual(values, decoded)
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}

func TestDecodeArrayEdgeCases(t *testing.T) {
	got, err := DecodeArray("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = DecodeArray("null")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = DecodeArray("not json")
	assert.ErrorIs(t, err, ErrParameterShape)

	encoded, err := EncodeArray(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)
}

func TestParameterInputJSON(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    ParameterInput
		wantErr bool
	}{
		{"string", `"10"`, Scalar("10"), false},
		{"number literal", `10`, Scalar("10"), false},
		{"bool literal", `true`, Scalar("true"), false},
		{"null", `null`, ParameterInput{}, false},
		{"value records", `[{"value":"a"},{"value":"b"}]`, List("a", "b"), false},
		{"bare strings", `["a","b"]`, List("a", "b"), false},
		{"empty list", `[]`, List(), false},
		{"object", `{"value":"a"}`, ParameterInput{}, true},
		{"list of numbers", `[1,2]`, ParameterInput{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got ParameterInput
			err := json.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	out, err := json.Marshal(List("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"value":"x"}]`, string(out))
}

func TestDecodeParameterKeepsRawValueOnBadList(t *testing.T) {
	assert.Equal(t, List("a"), decodeParameter(true, `["a"]`))
	assert.Equal(t, Scalar("oops"), decodeParameter(true, "oops"))
	assert.Equal(t, Scalar(`["a"]`), decodeParameter(false, `["a"]`))
}
