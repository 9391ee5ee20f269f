// Package client provides an HTTP client for the Pennywise API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pennywise/internal/assistant"
	"pennywise/internal/chat"
	"pennywise/internal/extraction"
	"pennywise/internal/imports"
)

// Credentials authenticate a single call. They are passed explicitly so the
// client holds no per-user state.
type Credentials struct {
	Token string
}

// DocumentRequest is the body of a document-processing call.
type DocumentRequest struct {
	Content  string `json:"content"`
	Format   string `json:"format"`
	BudgetID uint   `json:"budgetId"`
}

// ImportRequest is the body of a bulk import call.
type ImportRequest struct {
	BudgetID     uint          `json:"budgetId"`
	Transactions []imports.Row `json:"transactions"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client communicates with the Pennywise API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ProcessDocument extracts candidate transactions from a CSV or PDF document.
func (c *Client) ProcessDocument(ctx context.Context, creds Credentials, req DocumentRequest) ([]extraction.Candidate, error) {
	var result struct {
		Transactions []extraction.Candidate `json:"transactions"`
	}
	if err := c.post(ctx, creds, "/api/v1/documents/process", req, &result); err != nil {
		return nil, fmt.Errorf("processing document: %w", err)
	}
	return result.Transactions, nil
}

// BulkImport commits a batch of transactions.
func (c *Client) BulkImport(ctx context.Context, creds Credentials, req ImportRequest) (*imports.Result, error) {
	var result imports.Result
	if err := c.post(ctx, creds, "/api/v1/transactions/bulk", req, &result); err != nil {
		return nil, fmt.Errorf("importing transactions: %w", err)
	}
	return &result, nil
}

// Query asks the budget assistant a question.
func (c *Client) Query(ctx context.Context, creds Credentials, req chat.Request) (*assistant.Answer, error) {
	var answer assistant.Answer
	if err := c.post(ctx, creds, "/api/v1/assistant/query", req, &answer); err != nil {
		return nil, fmt.Errorf("querying assistant: %w", err)
	}
	return &answer, nil
}

// Asker binds creds to the client for use by a chat.Session.
func (c *Client) Asker(creds Credentials) chat.Asker {
	return &asker{client: c, creds: creds}
}

type asker struct {
	client *Client
	creds  Credentials
}

func (a *asker) Ask(ctx context.Context, req chat.Request) (*assistant.Answer, error) {
	return a.client.Query(ctx, a.creds, req)
}

func (c *Client) post(ctx context.Context, creds Credentials, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
		envelope.Error.StatusCode = resp.StatusCode
		return envelope.Error
	}
	return apiErr
}
