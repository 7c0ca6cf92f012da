// internal/core/entity_link_test.go
package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityLinkShape(t *testing.T) {
	table := NewTableLink("T")
	assert.False(t, table.IsColumn())
	assert.Equal(t, "T", table.Target())
	assert.Equal(t, "<#E::table::T>", table.String())

	column := NewColumnLink("T", "C")
	assert.True(t, column.IsColumn())
	assert.Equal(t, "T.C", column.Target())
	assert.Equal(t, "<#E::table::T::columns::C>", column.String())
}

func TestParseEntityLink(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    EntityLink
		wantErr bool
	}{
		{"table", "<#E::table::svc.db.sch.orders>", NewTableLink("svc.db.sch.orders"), false},
		{"column", "<#E::table::svc.db.sch.orders::columns::amount>", NewColumnLink("svc.db.sch.orders", "amount"), false},
		{"missing brackets", "#E::table::orders", EntityLink{}, true},
		{"wrong entity", "<#E::dashboard::sales>", EntityLink{}, true},
		{"empty fqn", "<#E::table::>", EntityLink{}, true},
		{"dangling field", "<#E::table::orders::columns>", EntityLink{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEntityLink(tc.raw)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.raw, got.String())
		})
	}
}
