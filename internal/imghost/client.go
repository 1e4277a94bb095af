// Package imghost uploads report photos to an external image-hosting
// service and deletes them by deletehash.
package imghost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/observability"
)

// ErrNoImageSource is returned when neither an image URL nor a local file
// path was supplied. That is a caller bug, not an upstream fault.
var ErrNoImageSource = errors.New("either an image URL or a file path must be supplied")

// UploadResult is the public URL of a hosted image plus the opaque token
// that authorizes its deletion.
type UploadResult struct {
	Link       string `json:"link"`
	DeleteHash string `json:"deletehash"`
}

// Client talks to an Imgur-style image hosting API.
type Client struct {
	baseURL    string
	clientID   string
	appName    string
	httpClient *http.Client
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewClient creates an image hosting client from explicit configuration.
func NewClient(cfg config.ImageHostConfig, appName string, metrics *observability.Metrics, log *logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		appName:    appName,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		log:        log,
	}
}

// Upload hosts an image given either its URL or a local file path.
// Exactly one source is used; supplying neither is ErrNoImageSource.
// Empty title and description fall back to app-branded defaults.
func (c *Client) Upload(ctx context.Context, imageURL, filePath, title, description string) (UploadResult, error) {
	if imageURL == "" && filePath == "" {
		return UploadResult{}, ErrNoImageSource
	}

	if title == "" {
		title = fmt.Sprintf("%s Image Upload", c.appName)
	}
	if description == "" {
		description = fmt.Sprintf("This is part of an idling vehicle report on %s.", c.appName)
	}

	if imageURL != "" {
		return c.uploadFromURL(ctx, imageURL, title, description)
	}
	return c.uploadFromPath(ctx, filePath, title, description)
}

func (c *Client) uploadFromURL(ctx context.Context, imageURL, title, description string) (UploadResult, error) {
	form := url.Values{
		"image":       {imageURL},
		"type":        {"url"},
		"title":       {title},
		"description": {description},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/image", strings.NewReader(form.Encode()))
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.send(req)
}

func (c *Client) uploadFromPath(ctx context.Context, filePath, title, description string) (UploadResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open image file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("image", filepath.Base(filePath))
	if err != nil {
		return UploadResult{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadResult{}, fmt.Errorf("read image file: %w", err)
	}
	_ = w.WriteField("title", title)
	_ = w.WriteField("description", description)
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image", &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.send(req)
}

func (c *Client) send(req *http.Request) (UploadResult, error) {
	req.Header.Set("Authorization", "Client-ID "+c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ImageUploads.WithLabelValues("error").Inc()
		return UploadResult{}, fmt.Errorf("image host request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.ImageUploads.WithLabelValues("error").Inc()
		return UploadResult{}, fmt.Errorf("image host error: status %d: %s", resp.StatusCode, body)
	}

	var ir response
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		c.metrics.ImageUploads.WithLabelValues("error").Inc()
		return UploadResult{}, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.ImageUploads.WithLabelValues("success").Inc()
	return UploadResult{Link: ir.Data.Link, DeleteHash: ir.Data.DeleteHash}, nil
}

// Delete removes a previously uploaded image using its deletehash.
func (c *Client) Delete(ctx context.Context, deleteHash string) error {
	if deleteHash == "" {
		return errors.New("deletehash must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/image/"+url.PathEscape(deleteHash), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image host request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("image host error: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Image host response types.

type response struct {
	Data struct {
		Link       string `json:"link"`
		DeleteHash string `json:"deletehash"`
	} `json:"data"`
	Success bool `json:"success"`
}
