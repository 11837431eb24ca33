package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/platinummonkey/petstore/pkg/pets"
)

// Client talks to the pet store REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// List returns every pet
func (c *Client) List(ctx context.Context) ([]pets.Record, error) {
	var records []pets.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/pet", nil, http.StatusOK, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns one pet, pets.ErrNotFound when absent
func (c *Client) Get(ctx context.Context, id string) (pets.Record, error) {
	var record pets.Record
	if err := c.do(ctx, http.MethodGet, petPath(id), nil, http.StatusOK, &record); err != nil {
		return pets.Record{}, err
	}
	return record, nil
}

// Add creates a pet and returns its id
func (c *Client) Add(ctx context.Context, pet pets.Pet) (string, error) {
	var created struct {
		ID json.Number `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/pet", pet, http.StatusCreated, &created); err != nil {
		return "", err
	}
	return created.ID.String(), nil
}

// Update replaces a pet, pets.ErrNotFound when absent
func (c *Client) Update(ctx context.Context, id string, pet pets.Pet) error {
	return c.do(ctx, http.MethodPatch, petPath(id), pet, http.StatusOK, nil)
}

// Remove deletes a pet, pets.ErrNotFound when absent
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, petPath(id), nil, http.StatusOK, nil)
}

func petPath(id string) string {
	return "/api/v1/pet/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, want int, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return pets.ErrNotFound
	}
	if resp.StatusCode != want {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s - %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
