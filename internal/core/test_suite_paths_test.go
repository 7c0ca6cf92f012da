// internal/core/test_suite_paths_test.go
package core

import "testing"

func TestTestSuiteDetailsPath(t *testing.T) {
	testCases := []struct {
		name       string
		executable bool
		fqn        string
		want       string
	}{
		{"executable suite", true, "db.schema.table.suite", "/table/db.schema.table.suite/profiler?activeTab=data-quality"},
		{"logical suite", false, "critical_metrics", "/test-suites/critical_metrics"},
		{"escaped fqn", false, "sales suite/eu", "/test-suites/sales%20suite%2Feu"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TestSuiteDetailsPath(tc.executable, tc.fqn); got != tc.want {
				t.Errorf("TestSuiteDetailsPath(%v, %q) = %q; want %q", tc.executable, tc.fqn, got, tc.want)
			}
		})
	}
}

func TestTestSuiteFQN(t *testing.T) {
	testCases := map[string]string{
		"db.schema.table.suite": "db.schema.table",
		"suiteOnly":             "suiteOnly",
		"a.b":                   "a",
		"":                      "",
	}
	for input, want := range testCases {
		if got := TestSuiteFQN(input); got != want {
			t.Errorf("TestSuiteFQN(%q) = %q; want %q", input, got, want)
		}
	}
}

func TestEntityDetailsPath(t *testing.T) {
	if got := EntityDetailsPath("table", "svc.db.sch.orders", ""); got != "/table/svc.db.sch.orders" {
		t.Errorf("EntityDetailsPath without tab = %q", got)
	}
	if got := EntityDetailsPath("/table/", "orders", EntityTabProfiler); got != "/table/orders/profiler" {
		t.Errorf("EntityDetailsPath with tab = %q", got)
	}
}
