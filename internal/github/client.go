package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/ralt/ghfetch/internal/models"
	"github.com/ralt/ghfetch/internal/version"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the production GitHub REST API endpoint
const DefaultBaseURL = "https://api.github.com"

// GitHub tokens are restricted to this charset; anything else is rejected
// before a network call is made.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Client talks to the GitHub releases API and downloads release assets
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a release API client. baseURL is overridable for tests;
// an empty string selects the production endpoint. A non-empty token is
// validated against the GitHub token charset.
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if token != "" && !tokenPattern.MatchString(token) {
		return nil, &models.FetchError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("token contains characters outside [A-Za-z0-9_-]"),
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}, nil
}

// LatestRelease fetches the latest (non-draft, non-prerelease) release
// metadata for owner/repo.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*models.Release, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)

	logrus.Debugf("Fetching release metadata: %s", apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: apiURL,
			Err:    err,
		}
	}

	req.Header.Set("User-Agent", "ghfetch/"+version.Version)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: apiURL,
			Err:    fmt.Errorf("fetch release metadata: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: apiURL,
			Err:    fmt.Errorf("fetch release metadata: status=%s body=%s", resp.Status, string(b)),
		}
	}

	var rel models.Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: apiURL,
			Err:    fmt.Errorf("decode release JSON: %w", err),
		}
	}

	if rel.Assets == nil {
		logrus.Debug("Release response has no assets field")
	}

	return &rel, nil
}

// FindAssetURL returns the browser_download_url of the first asset (in API
// order) whose name matches pattern. Matching uses search semantics: the
// pattern may match anywhere in the name unless anchored.
func FindAssetURL(rel *models.Release, pattern string) (string, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return "", &models.FetchError{
			Type:   models.ErrInvalidConfig,
			Detail: pattern,
			Err:    fmt.Errorf("invalid asset pattern: %w", err),
		}
	}

	for _, a := range rel.Assets {
		m, err := re.FindStringMatch(a.Name)
		if err != nil {
			return "", &models.FetchError{
				Type:   models.ErrInvalidConfig,
				Detail: pattern,
				Err:    fmt.Errorf("match asset %q: %w", a.Name, err),
			}
		}
		if m != nil {
			logrus.Debugf("Asset %s matches pattern", a.Name)
			return a.BrowserDownloadURL, nil
		}
		logrus.Debugf("Asset %s does not match pattern", a.Name)
	}

	return "", &models.FetchError{
		Type:   models.ErrNotFound,
		Detail: pattern,
		Err:    fmt.Errorf("no asset matches pattern (%d assets)", len(rel.Assets)),
	}
}

// DownloadFile streams the content at url into path, overwriting any
// existing file. No retry, no partial resume.
func (c *Client) DownloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: url,
			Err:    err,
		}
	}

	req.Header.Set("User-Agent", "ghfetch/"+version.Version)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: url,
			Err:    fmt.Errorf("download asset: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: url,
			Err:    fmt.Errorf("download asset: status=%s body=%s", resp.Status, string(b)),
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &models.FetchError{
			Type:   models.ErrFileOp,
			Detail: path,
			Err:    err,
		}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return &models.FetchError{
			Type:   models.ErrNetwork,
			Detail: url,
			Err:    fmt.Errorf("stream asset: %w", err),
		}
	}

	return f.Sync()
}
