package catalogclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL+"/", "secret", time.Second, nil)
	require.NoError(t, err)
	return client
}

func TestListTestDefinitions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testDefinitionsPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "COLUMN", q.Get("entityType"))
		assert.Equal(t, "OpenMetadata", q.Get("testPlatform"))
		assert.Equal(t, "STRING", q.Get("supportedDataType"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Empty(t, q.Get("offset"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []domain.TestDefinition{{Name: "columnValuesToBeUnique", FullyQualifiedName: "columnValuesToBeUnique"}},
		})
	})

	defs, err := client.ListTestDefinitions(context.Background(), domain.TestDefinitionFilter{
		Limit:             50,
		EntityType:        domain.EntityTypeColumn,
		TestPlatform:      domain.TestPlatformOpenMetadata,
		SupportedDataType: "STRING",
	})
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "columnValuesToBeUnique", defs[0].FullyQualifiedName)
}

func TestListTestCases(t *testing.T) {
	link := "<#E::table::svc.db.sales.orders::columns::email>"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testCasesPath, r.URL.Path)
		assert.Equal(t, "testDefinition", r.URL.Query().Get("fields"))
		assert.Equal(t, link, r.URL.Query().Get("entityLink"))
		_, _ = w.Write([]byte(`{"data":null}`))
	})

	cases, err := client.ListTestCases(context.Background(), domain.TestCaseFilter{Fields: []string{"testDefinition"}, EntityLink: link})
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestClientErrors(t *testing.T) {
	t.Run("unexpected status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := client.ListTestDefinitions(context.Background(), domain.TestDefinitionFilter{})
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("conflict on create", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			http.Error(w, "already exists", http.StatusConflict)
		})
		_, err := client.CreateTestCase(context.Background(), domain.CreateTestCase{Name: "dup_test"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("bad json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		_, err := client.ListTestCases(context.Background(), domain.TestCaseFilter{})
		assert.Error(t, err)
	})

	t.Run("invalid base url", func(t *testing.T) {
		_, err := NewClient("", "", 0, nil)
		assert.Error(t, err)
		_, err = NewClient("not a url", "", 0, nil)
		assert.Error(t, err)
	})
}

func TestCreateTestCase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateTestCase
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.TestCase{ID: "tc-1", Name: req.Name, EntityLink: req.EntityLink})
	})

	created, err := client.CreateTestCase(context.Background(), domain.CreateTestCase{Name: "rows", EntityLink: "<#E::table::t>"})
	require.NoError(t, err)
	assert.Equal(t, "tc-1", created.ID)
	assert.Equal(t, "rows", created.Name)
}
