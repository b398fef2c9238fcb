// Package client talks to a running booth over its http api.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/store"
)

const pageLimit = 100

type BoothClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewBoothClient(baseURL string) *BoothClient {
	return &BoothClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the admin bearer token used for admin requests.
func (bc *BoothClient) SetToken(token string) {
	bc.token = token
}

func (bc *BoothClient) newRequest(method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, bc.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bc.token != "" {
		req.Header.Set("Authorization", "Bearer "+bc.token)
	}
	return req, nil
}

// do sends req and decodes a 2xx json body into out when out is not nil.
func (bc *BoothClient) do(req *http.Request, out any) error {
	resp, err := bc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Login exchanges the admin password for a token and keeps it for later
// admin requests.
func (bc *BoothClient) Login(password string) error {
	req, err := bc.newRequest(http.MethodPost, "/admin/login", models.LoginRequest{Password: password})
	if err != nil {
		return err
	}

	var loginResp models.LoginResponse
	if err := bc.do(req, &loginResp); err != nil {
		return err
	}
	bc.token = loginResp.Token
	return nil
}

func (bc *BoothClient) GetSettings() (*models.SettingsResponse, error) {
	req, err := bc.newRequest(http.MethodGet, "/settings", nil)
	if err != nil {
		return nil, err
	}

	var settings models.SettingsResponse
	if err := bc.do(req, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetCaptures retrieves every capture, newest first.
func (bc *BoothClient) GetCaptures() ([]store.Capture, error) {
	var allCaptures []store.Capture
	page := 1

	for {
		req, err := bc.newRequest(http.MethodGet, fmt.Sprintf("/captures?page=%d&limit=%d", page, pageLimit), nil)
		if err != nil {
			return nil, err
		}

		var listResp models.CaptureListResponse
		if err := bc.do(req, &listResp); err != nil {
			return nil, err
		}
		allCaptures = append(allCaptures, listResp.Captures...)

		// Check if we've fetched all captures
		if len(listResp.Captures) < pageLimit || len(allCaptures) >= listResp.Total {
			break
		}

		page++
	}

	return allCaptures, nil
}

// DeleteCapture removes a capture. A missing capture is not an error.
func (bc *BoothClient) DeleteCapture(name string) error {
	req, err := bc.newRequest(http.MethodDelete, "/captures/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}

	resp, err := bc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// DownloadCapture writes the PNG of a capture to w.
func (bc *BoothClient) DownloadCapture(name string, w io.Writer) error {
	req, err := bc.newRequest(http.MethodGet, "/captures/"+url.PathEscape(name)+"/image", nil)
	if err != nil {
		return err
	}

	resp, err := bc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d for capture %s", resp.StatusCode, name)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to download capture: %w", err)
	}
	return nil
}
