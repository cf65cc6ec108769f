// Package ollama implements the detection backend on top of a local Ollama
// server running a vision model. The model is steered into emitting a strict
// JSON detection list; anything it returns outside that contract is reported
// as an invalid detection, never silently turned into a box.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/mvetter/autocrop/pkg/client"
	"github.com/mvetter/autocrop/pkg/types"
)

const defaultBaseURL = "http://localhost:11434"

// defaultTimeout guards direct calls whose context carries no deadline.
// Vision models on CPU can take minutes per image.
const defaultTimeout = 300 * time.Second

// detectPromptFmt instructs the model to answer with a bare JSON detection
// list. The verb %d carries the detection cap.
const detectPromptFmt = `You are an object detection model.

Return JSON only:
{"detections":[{"label":"string","confidence":0.0,"box":{"x_min":0.0,"y_min":0.0,"x_max":0.0,"y_max":0.0}}]}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels), origin at the top-left.
- x_min < x_max and y_min < y_max for every box.
- Return at most %d detection(s), ordered by confidence, highest first.
- Each box must tightly enclose one prominent subject (prefer people/vehicles/animals; else the dominant salient object).
- confidence is your calibrated certainty in [0,1].
- If nothing qualifies, return {"detections":[]}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Client runs detection through the Ollama chat API.
type Client struct {
	client *api.Client
}

// NewClient creates a client for the Ollama server at ollamaURL, defaulting
// to a local instance. Any path on the URL is ignored; only scheme and host
// are used.
func NewClient(ollamaURL string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = defaultBaseURL
	}
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// DetectObjects sends the image to the vision model and parses the detection
// list out of its reply. Box coordinates are normalized to [0,1] as demanded
// by the prompt; the detection layer re-checks that.
func (c *Client) DetectObjects(ctx context.Context, model, imgB64 string, opts client.Options) ([]types.Detection, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %v", err)
	}

	maxDet := opts.MaxDetections
	if maxDet <= 0 {
		maxDet = 1
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: fmt.Sprintf(detectPromptFmt, maxDet),
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		// Sampling off: coordinates must be stable run to run.
		Options: map[string]any{"temperature": 0.0},
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}
	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return parseDetections(responseContent)
}

// parseDetections extracts the detection list from a model reply. A reply
// that cannot be read as the contract JSON is an invalid detection; a
// well-formed empty list is a legitimate no-detection result.
func parseDetections(raw string) ([]types.Detection, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("%w: model reply is not JSON", types.ErrInvalidDetection)
	}

	var payload struct {
		Detections []types.Detection `json:"detections"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Conservative retry on the outermost brace slice.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: no JSON object in model reply", types.ErrInvalidDetection)
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &payload); err2 != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidDetection, err2)
		}
	}
	return payload.Detections, nil
}

// sanitizeModelJSON removes code fences, comments, and trailing commas that
// vision models habitually wrap around their JSON.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")
	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
