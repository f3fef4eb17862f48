package folders

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GitHubMirror pushes the saved-folders document to a file in a GitHub
// repository via the contents API after every write.
type GitHubMirror struct {
	baseURL string // https://api.github.com unless overridden in tests
	token   string
	repo    string // "owner/repo"
	path    string
	hc      *http.Client
}

func NewGitHubMirror(token, repo, path string, httpClient *http.Client) *GitHubMirror {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GitHubMirror{
		baseURL: "https://api.github.com",
		token:   token,
		repo:    repo,
		path:    path,
		hc:      httpClient,
	}
}

// Push uploads content as the mirrored file's new revision. The contents
// API requires the current blob SHA when the file already exists, so the
// push is a GET for the SHA followed by a PUT.
func (m *GitHubMirror) Push(ctx context.Context, content []byte) error {
	sha, err := m.currentSHA(ctx)
	if err != nil {
		return err
	}

	payload := map[string]string{
		"message": "update saved folders",
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mirror marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.contentsURL(), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("mirror request: %w", err)
	}
	m.setHeaders(req)

	resp, err := m.hc.Do(req)
	if err != nil {
		return fmt.Errorf("mirror push: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mirror push: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func (m *GitHubMirror) currentSHA(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.contentsURL(), nil)
	if err != nil {
		return "", fmt.Errorf("mirror request: %w", err)
	}
	m.setHeaders(req)

	resp, err := m.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("mirror sha lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("mirror sha lookup: status=%d", resp.StatusCode)
	}

	var out struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("mirror sha parse: %w", err)
	}
	return out.SHA, nil
}

func (m *GitHubMirror) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", m.baseURL, m.repo, m.path)
}

func (m *GitHubMirror) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}
