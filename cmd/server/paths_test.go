package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsCommand(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "executable suite",
			args: []string{"paths", "--fqn", "svc.db.sales.orders.testSuite", "--executable"},
			want: "path:   /table/svc.db.sales.orders.testSuite/profiler?activeTab=data-quality\nparent: svc.db.sales.orders\n",
		},
		{
			name: "logical suite",
			args: []string{"paths", "--fqn", "nightly", "--executable=false"},
			want: "path:   /test-suites/nightly\nparent: nightly\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tc.args)
			require.NoError(t, rootCmd.Execute())
			assert.Equal(t, tc.want, out.String())
		})
	}
}
