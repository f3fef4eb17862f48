package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hotelscout/pkg/models"
)

// Client is a minimal Ollama-compatible LLM client used for the two
// enrichment operations: review sentiment summaries and room-count lookup.
type Client struct {
	url    string
	model  string
	hc     *http.Client
	logger func(format string, v ...any)
}

// NewClient creates a new client. If httpClient is nil, a default with
// timeout is used.
func NewClient(url, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		url:   url,
		model: model,
		hc:    httpClient,
		logger: func(format string, v ...any) {
			fmt.Fprintf(io.Discard, format, v...)
		},
	}
}

// SetLogger allows injecting a simple printf-like logger for debugging.
func (c *Client) SetLogger(l func(format string, v ...any)) {
	if l == nil {
		return
	}
	c.logger = l
}

// Summarize produces a short sentiment summary of the hotel's reviews.
func (c *Client) Summarize(ctx context.Context, hotelName string, reviews []models.Review) (string, error) {
	if len(reviews) == 0 {
		return "", fmt.Errorf("no reviews to summarize")
	}

	var sb strings.Builder
	for i, rv := range reviews {
		// Keep the prompt within a reasonable token budget.
		if i >= 40 || sb.Len() > 20000 {
			break
		}
		if rv.Rating != nil {
			fmt.Fprintf(&sb, "(%.1f) ", *rv.Rating)
		}
		sb.WriteString(rv.Text)
		sb.WriteString("\n")
	}

	prompt := fmt.Sprintf(
		"Summarize the overall guest sentiment for the hotel %q in 2-3 sentences, covering recurring praise and recurring complaints.\n\nReviews:\n%s\nSummary:",
		hotelName, sb.String())

	out, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// LookupRoomCount asks the model for the number of rooms at a hotel.
// An answer that does not contain a usable number yields (nil, nil): the
// count is simply unknown, not an error.
func (c *Client) LookupRoomCount(ctx context.Context, name, address string) (*int, error) {
	prompt := fmt.Sprintf(
		"How many rooms does the hotel %q at %q have? Reply with just the number, or \"unknown\" if you are not sure.",
		name, address)

	out, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseRoomCount(out), nil
}

var roomCountRe = regexp.MustCompile(`\d[\d,]*`)

func parseRoomCount(s string) *int {
	m := roomCountRe.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// generate sends a non-streaming request and extracts the returned text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      c.model,
		"prompt":     prompt,
		"max_tokens": 256,
		"stream":     false,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("llm new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	lat := time.Since(start)
	c.logger("llm request url=%s model=%s status_err=%v latency=%s", c.url, c.model, err, lat)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// include body for debugging
		return "", fmt.Errorf("llm request failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	return extractText(respBody), nil
}

// extractText parses the common response shapes:
// 1) {"response": "text..."}  (Ollama)
// 2) {"text": "text..."}      (some APIs)
// 3) {"choices":[{"text":"..."}]} or choices with "message".{"content"} (openai-like)
// 4) {"results":[{"response"|"text": ...}]}
// 5) fallback: the raw body.
func extractText(respBody []byte) string {
	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return string(respBody)
	}

	if m, ok := parsed.(map[string]any); ok {
		if v, ok := m["response"]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
		if v, ok := m["text"]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
		if v, ok := m["choices"]; ok {
			if arr, ok := v.([]any); ok && len(arr) > 0 {
				if first, ok := arr[0].(map[string]any); ok {
					if t, ok := first["text"]; ok {
						if s, ok := t.(string); ok && s != "" {
							return s
						}
					}
					if msg, ok := first["message"]; ok {
						if m2, ok := msg.(map[string]any); ok {
							if content, ok := m2["content"]; ok {
								if s, ok := content.(string); ok && s != "" {
									return s
								}
							}
						}
					}
				}
			}
		}
		if v, ok := m["results"]; ok {
			if arr, ok := v.([]any); ok && len(arr) > 0 {
				buf := ""
				for _, it := range arr {
					if oo, ok := it.(map[string]any); ok {
						if r, ok := oo["response"]; ok {
							if s, ok := r.(string); ok {
								buf += s
							}
						} else if t, ok := oo["text"]; ok {
							if s, ok := t.(string); ok {
								buf += s
							}
						}
					}
				}
				if buf != "" {
					return buf
				}
			}
		}
	}

	return string(bytes.TrimSpace(respBody))
}
