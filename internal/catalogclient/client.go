// internal/catalogclient/client.go
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-dq/internal/domain"
	"github.com/Annany2002/nebula-dq/internal/logger"
	"github.com/Annany2002/nebula-dq/internal/metrics"
)

var (
	customLog = logger.NewLogger()
)

var (
	ErrUnexpectedStatus = errors.New("catalog returned an unexpected status")
	ErrConflict         = errors.New("catalog reported a conflict")
)

// SourceRemote labels catalog metrics for the remote API.
const SourceRemote = "remote"

const (
	testDefinitionsPath = "/api/v1/dataQuality/testDefinitions"
	testCasesPath       = "/api/v1/dataQuality/testCases"
	maxErrorBody        = 512
)

// Client reads reference data from a remote catalog REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a client for baseURL. token is sent as a bearer token when set.
func NewClient(baseURL, token string, timeout time.Duration, m *metrics.Metrics) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("catalog URL not configured")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog URL '%s': %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}, nil
}

// listResponse is the paging envelope of catalog list endpoints.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// ListTestDefinitions queries the test definition listing.
func (c *Client) ListTestDefinitions(ctx context.Context, filter domain.TestDefinitionFilter) ([]domain.TestDefinition, error) {
	q := url.Values{}
	setPaging(q, filter.Limit, filter.Offset)
	if filter.EntityType != "" {
		q.Set("entityType", string(filter.EntityType))
	}
	if filter.TestPlatform != "" {
		q.Set("testPlatform", string(filter.TestPlatform))
	}
	if filter.SupportedDataType != "" {
		q.Set("supportedDataType", filter.SupportedDataType)
	}

	start := time.Now()
	var resp listResponse[domain.TestDefinition]
	err := c.do(ctx, http.MethodGet, testDefinitionsPath, q, nil, &resp)
	c.metrics.RecordCatalogFetch(SourceRemote, "testDefinitions", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("listing test definitions: %w", err)
	}
	return nonNil(resp.Data), nil
}

// ListTestCases queries the test case listing.
func (c *Client) ListTestCases(ctx context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error) {
	q := url.Values{}
	setPaging(q, filter.Limit, filter.Offset)
	if len(filter.Fields) > 0 {
		q.Set("fields", strings.Join(filter.Fields, ","))
	}
	if filter.EntityLink != "" {
		q.Set("entityLink", filter.EntityLink)
	}

	start := time.Now()
	var resp listResponse[domain.TestCase]
	err := c.do(ctx, http.MethodGet, testCasesPath, q, nil, &resp)
	c.metrics.RecordCatalogFetch(SourceRemote, "testCases", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("listing test cases: %w", err)
	}
	return nonNil(resp.Data), nil
}

// CreateTestCase posts a submitted test case to the catalog.
func (c *Client) CreateTestCase(ctx context.Context, req domain.CreateTestCase) (*domain.TestCase, error) {
	var created domain.TestCase
	if err := c.do(ctx, http.MethodPost, testCasesPath, nil, req, &created); err != nil {
		return nil, fmt.Errorf("creating test case '%s': %w", req.Name, err)
	}
	return &created, nil
}

// do sends one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		customLog.Warnf("Catalog: %s %s failed: %v", method, path, err)
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		customLog.Warnf("Catalog: %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: %s", ErrConflict, strings.TrimSpace(string(snippet)))
		}
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func setPaging(q url.Values, limit, offset int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
