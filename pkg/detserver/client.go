// Package detserver implements the detection backend against a dedicated
// detection HTTP service (a YOLO/ONNX model behind a small REST API). Unlike
// the vision-model path there is no prompt: the service speaks detection
// natively and applies the confidence and count limits server-side.
package detserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mvetter/autocrop/pkg/client"
	"github.com/mvetter/autocrop/pkg/types"
)

const defaultBaseURL = "http://localhost:8000"

// detectRequest is the inference request body.
type detectRequest struct {
	Model         string  `json:"model,omitempty"`
	Image         string  `json:"image"`
	Confidence    float64 `json:"confidence,omitempty"`
	MaxDetections int     `json:"max_detections,omitempty"`
}

// detectResponse is the inference response body. Detections arrive in the
// model's ranking order; boxes are in pixels of the submitted image.
type detectResponse struct {
	Detections []types.Detection `json:"detections"`
}

// Client talks to a detection service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the detection service at serverURL,
// defaulting to a local instance.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// DetectObjects submits the image and returns the service's detections.
func (c *Client) DetectObjects(ctx context.Context, model, imgB64 string, opts client.Options) ([]types.Detection, error) {
	req := detectRequest{
		Model:         model,
		Image:         imgB64,
		Confidence:    opts.Confidence,
		MaxDetections: opts.MaxDetections,
	}

	respBody, err := c.sendRequest(ctx, "/detect", req)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", types.ErrInvalidDetection, err)
	}
	return resp.Detections, nil
}

// Health reports whether the detection service is reachable and ready.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detection service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
