// Package ghcontent is a thin client over the GitHub repository contents API,
// used as the content-hosting backend for XML templates. Every mutation
// requires the file's current revision sha and returns the new one.
package ghcontent

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleet-console/internal/model"
)

const defaultAPIBase = "https://api.github.com"

var ErrMissingToken = errors.New("content backend token required for mutation")

type Config struct {
	Owner string
	Repo  string
	// Dir is the repository directory templates live under.
	Dir   string
	Token string

	// APIBase and HTTPClient are overridable for tests.
	APIBase    string
	HTTPClient *http.Client
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
	Type        string `json:"type"`
}

func (i contentItem) template() model.Template {
	return model.Template{
		Name:        i.Name,
		Path:        i.Path,
		SHA:         i.SHA,
		Size:        i.Size,
		DownloadURL: i.DownloadURL,
	}
}

func (c *Client) contentsURL(path string) string {
	escaped := make([]string, 0, 4)
	for _, seg := range strings.Split(path, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.cfg.APIBase, c.cfg.Owner, c.cfg.Repo, strings.Join(escaped, "/"))
}

func (c *Client) do(method, rawURL string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+c.cfg.Token)
	}
	return c.http.Do(req)
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &parsed)
	if parsed.Message != "" {
		return fmt.Errorf("content backend: %s: %s", resp.Status, parsed.Message)
	}
	return fmt.Errorf("content backend: %s", resp.Status)
}

// List fetches the template directory. Listing is always a full re-fetch; a
// missing directory is an empty list, not an error.
func (c *Client) List() ([]model.Template, error) {
	resp, err := c.do(http.MethodGet, c.contentsURL(c.cfg.Dir), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var items []contentItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}

	templates := make([]model.Template, 0, len(items))
	for _, item := range items {
		if item.Type != "file" {
			continue
		}
		templates = append(templates, item.template())
	}
	return templates, nil
}

// findSHA looks up the current revision of a file, empty when absent.
func (c *Client) findSHA(path string) (string, error) {
	resp, err := c.do(http.MethodGet, c.contentsURL(path), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var item contentItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return "", err
	}
	return item.SHA, nil
}

type uploadBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type mutationResponse struct {
	Content contentItem `json:"content"`
}

// Upload creates or overwrites a template file and returns its new revision.
func (c *Client) Upload(name string, content []byte) (model.Template, error) {
	if c.cfg.Token == "" {
		return model.Template{}, ErrMissingToken
	}

	path := c.cfg.Dir + "/" + name
	existingSHA, err := c.findSHA(path)
	if err != nil {
		return model.Template{}, err
	}

	body := uploadBody{
		Message: "Upload XML template: " + name,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  "main",
		SHA:     existingSHA,
	}
	resp, err := c.do(http.MethodPut, c.contentsURL(path), body)
	if err != nil {
		return model.Template{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return model.Template{}, apiError(resp)
	}

	var parsed mutationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.Template{}, err
	}
	return parsed.Content.template(), nil
}

type deleteBody struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

// Delete removes a template file. The sha must be the file's current revision.
func (c *Client) Delete(path, sha string) error {
	if c.cfg.Token == "" {
		return ErrMissingToken
	}
	if sha == "" {
		return errors.New("missing revision sha")
	}

	body := deleteBody{Message: "Delete XML template: " + path, SHA: sha, Branch: "main"}
	resp, err := c.do(http.MethodDelete, c.contentsURL(path), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}
