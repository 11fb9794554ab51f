// Package client is a Go SDK for the module-builder API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/divu-hq/module-builder/internal/blueprints"
	"github.com/divu-hq/module-builder/internal/models"
)

// Client is a Go SDK for the module-builder API
type Client struct {
	baseURL    string
	apiKey     string
	actorID    string
	actorName  string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithActor identifies the end user driving this client's mutations. The
// server uses it for stale-write warnings when two sessions edit one draft.
func WithActor(id, displayName string) Option {
	return func(c *Client) {
		c.actorID = id
		c.actorName = displayName
	}
}

// NewClient creates a new module-builder client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// --- envelope handling ---

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeInto unwraps the {success, data, error} envelope into out
func decodeInto(resp []byte, out interface{}) error {
	var env apiEnvelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("API error: %s - %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}
	return decodeInto(resp, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeInto(resp, out)
}

// --- drafts ---

// CreateDraft opens a fresh draft, optionally seeded from a blueprint
func (c *Client) CreateDraft(ctx context.Context, req models.CreateDraftRequest) (*models.Draft, error) {
	var d models.Draft
	if err := c.sendJSON(ctx, "POST", "/api/v1/drafts", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDraft retrieves a draft by ID
func (c *Client) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	var d models.Draft
	if err := c.getJSON(ctx, "/api/v1/drafts/"+id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ResumeDraft returns the author's most recently updated draft
func (c *Client) ResumeDraft(ctx context.Context, authorID string) (*models.Draft, error) {
	var d models.Draft
	path := "/api/v1/drafts/resume?author_id=" + url.QueryEscape(authorID)
	if err := c.getJSON(ctx, path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDraftsOptions contains options for listing drafts
type ListDraftsOptions struct {
	AuthorID string
	Limit    int
	Offset   int
}

// ListDrafts retrieves drafts
func (c *Client) ListDrafts(ctx context.Context, opts ListDraftsOptions) ([]*models.Draft, error) {
	q := url.Values{}
	if opts.AuthorID != "" {
		q.Set("author_id", opts.AuthorID)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}

	path := "/api/v1/drafts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Drafts []*models.Draft `json:"drafts"`
		Total  int             `json:"total"`
	}
	if err := c.getJSON(ctx, path, &data); err != nil {
		return nil, err
	}
	return data.Drafts, nil
}

// UpdateInfo patches the draft's title and/or description
func (c *Client) UpdateInfo(ctx context.Context, draftID string, req models.UpdateInfoRequest) (*models.Draft, error) {
	var d models.Draft
	if err := c.sendJSON(ctx, "PUT", "/api/v1/drafts/"+draftID+"/info", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetStep moves the wizard to the given step
func (c *Client) SetStep(ctx context.Context, draftID string, step models.Step) (*models.Draft, error) {
	var d models.Draft
	if err := c.sendJSON(ctx, "PUT", "/api/v1/drafts/"+draftID+"/step", models.SetStepRequest{Step: step}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Publish turns the draft into a published module and deletes the draft
func (c *Client) Publish(ctx context.Context, draftID string) (*models.Module, error) {
	var m models.Module
	if err := c.sendJSON(ctx, "POST", "/api/v1/drafts/"+draftID+"/publish", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// RequestAbandon starts the two-phase abandon and returns the confirmation
// token
func (c *Client) RequestAbandon(ctx context.Context, draftID string) (*models.AbandonResponse, error) {
	var resp models.AbandonResponse
	if err := c.sendJSON(ctx, "POST", "/api/v1/drafts/"+draftID+"/abandon", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmAbandon executes the irreversible delete
func (c *Client) ConfirmAbandon(ctx context.Context, draftID, token string) error {
	req := models.ConfirmAbandonRequest{ConfirmToken: token}
	return c.sendJSON(ctx, "POST", "/api/v1/drafts/"+draftID+"/abandon/confirm", req, nil)
}

// --- pages and sections ---

// AddPage appends a page seeded with one section of the given kind
func (c *Client) AddPage(ctx context.Context, draftID string, sectionType models.SectionKind) (*models.PageResult, error) {
	var res models.PageResult
	req := models.AddPageRequest{SectionType: sectionType}
	if err := c.sendJSON(ctx, "POST", "/api/v1/drafts/"+draftID+"/pages", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RemovePage deletes a page
func (c *Client) RemovePage(ctx context.Context, draftID, pageID string) (*models.PageResult, error) {
	var res models.PageResult
	if err := c.sendJSON(ctx, "DELETE", "/api/v1/drafts/"+draftID+"/pages/"+pageID, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DuplicatePage deep-copies a page and inserts the clone after the source
func (c *Client) DuplicatePage(ctx context.Context, draftID, pageID string) (*models.PageResult, error) {
	var res models.PageResult
	if err := c.sendJSON(ctx, "POST", "/api/v1/drafts/"+draftID+"/pages/"+pageID+"/duplicate", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RenamePage sets a page's display label
func (c *Client) RenamePage(ctx context.Context, draftID, pageID, name string) (*models.Draft, error) {
	var d models.Draft
	req := models.RenamePageRequest{Name: name}
	if err := c.sendJSON(ctx, "PUT", "/api/v1/drafts/"+draftID+"/pages/"+pageID+"/name", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AddSection appends a default section of the given kind to a page
func (c *Client) AddSection(ctx context.Context, draftID, pageID string, sectionType models.SectionKind) (*models.Draft, error) {
	var d models.Draft
	req := models.AddSectionRequest{SectionType: sectionType}
	if err := c.sendJSON(ctx, "POST", "/api/v1/drafts/"+draftID+"/pages/"+pageID+"/sections", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateSection merges a partial update into a section
func (c *Client) UpdateSection(ctx context.Context, draftID, pageID, sectionID string, patch models.SectionPatch) (*models.Draft, error) {
	var d models.Draft
	path := "/api/v1/drafts/" + draftID + "/pages/" + pageID + "/sections/" + sectionID
	if err := c.sendJSON(ctx, "PUT", path, patch, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RemoveSection deletes a section from a page
func (c *Client) RemoveSection(ctx context.Context, draftID, pageID, sectionID string) (*models.Draft, error) {
	var d models.Draft
	path := "/api/v1/drafts/" + draftID + "/pages/" + pageID + "/sections/" + sectionID
	if err := c.sendJSON(ctx, "DELETE", path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// MoveSection swaps a section with its neighbor ("up" or "down")
func (c *Client) MoveSection(ctx context.Context, draftID, pageID, sectionID, direction string) (*models.Draft, error) {
	var d models.Draft
	req := models.MoveSectionRequest{Direction: direction}
	path := "/api/v1/drafts/" + draftID + "/pages/" + pageID + "/sections/" + sectionID + "/move"
	if err := c.sendJSON(ctx, "POST", path, req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AppendItem adds one default entry to a list-shaped section
func (c *Client) AppendItem(ctx context.Context, draftID, pageID, sectionID string) (*models.Draft, error) {
	var d models.Draft
	path := "/api/v1/drafts/" + draftID + "/pages/" + pageID + "/sections/" + sectionID + "/items"
	if err := c.sendJSON(ctx, "POST", path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RemoveItem deletes the entry at index from a list-shaped section
func (c *Client) RemoveItem(ctx context.Context, draftID, pageID, sectionID string, index int) (*models.Draft, error) {
	var d models.Draft
	path := "/api/v1/drafts/" + draftID + "/pages/" + pageID + "/sections/" + sectionID + "/items/" + strconv.Itoa(index)
	if err := c.sendJSON(ctx, "DELETE", path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// --- modules ---

// ListModulesOptions contains options for listing published modules
type ListModulesOptions struct {
	CreatedBy string
	Limit     int
	Offset    int
}

// ListModules retrieves published modules
func (c *Client) ListModules(ctx context.Context, opts ListModulesOptions) ([]*models.Module, error) {
	q := url.Values{}
	if opts.CreatedBy != "" {
		q.Set("created_by", opts.CreatedBy)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}

	path := "/api/v1/modules"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Modules []*models.Module `json:"modules"`
		Total   int              `json:"total"`
	}
	if err := c.getJSON(ctx, path, &data); err != nil {
		return nil, err
	}
	return data.Modules, nil
}

// GetModule retrieves a published module by ID
func (c *Client) GetModule(ctx context.Context, id string) (*models.Module, error) {
	var m models.Module
	if err := c.getJSON(ctx, "/api/v1/modules/"+id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// --- blueprints and uploads ---

// ListBlueprints retrieves all loaded blueprints
func (c *Client) ListBlueprints(ctx context.Context) ([]*blueprints.Blueprint, error) {
	var data struct {
		Blueprints []*blueprints.Blueprint `json:"blueprints"`
		Total      int                     `json:"total"`
	}
	if err := c.getJSON(ctx, "/api/v1/blueprints", &data); err != nil {
		return nil, err
	}
	return data.Blueprints, nil
}

// Upload stores a media file and returns the media_path to put in a photo or
// video section
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/uploads", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var data struct {
		MediaPath string `json:"media_path"`
	}
	if err := decodeInto(respBody, &data); err != nil {
		return "", err
	}
	return data.MediaPath, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// --- transport ---

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.actorID != "" {
		req.Header.Set("X-Actor-ID", c.actorID)
	}
	if c.actorName != "" {
		req.Header.Set("X-Actor-Name", c.actorName)
	}
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
