// Package gateway provides a gateway to the GitLab REST API (v4).
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/gitlab-inventory/internal/config"
	"github.com/naka-gawa/gitlab-inventory/internal/domain"
)

const (
	perPage            = 100
	nextPageHeader     = "X-Next-Page"
	privateTokenHeader = "PRIVATE-TOKEN"
	// maxErrorBody limits how much of a failed response is kept in an APIError.
	maxErrorBody = 4 << 10
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	// ErrMalformedResponse is returned for a 2xx response missing required data.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrPageLimitExceeded is returned when the server still returns projects
	// beyond the configured maximum number of pages.
	ErrPageLimitExceeded = errors.New("page limit exceeded")
)

// APIError describes a non-2xx response from the GitLab API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is lets errors.Is classify the response by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Fetcher defines the behavior of a gateway for fetching information from GitLab.
type Fetcher interface {
	FetchGroup(ctx context.Context, path string) (*domain.Group, error)
	FetchGroupProjects(ctx context.Context, groupID int64) ([]domain.Project, error)
}

// GitLabGateway is the concrete implementation of the Fetcher interface.
type GitLabGateway struct {
	baseURL    string
	httpClient *http.Client
	maxPages   int
	logger     logrus.FieldLogger
}

// privateTokenTransport adds the PRIVATE-TOKEN header to every request.
type privateTokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *privateTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(privateTokenHeader, t.token)
	return t.base.RoundTrip(r)
}

// NewGitLabGateway creates a gateway authenticated according to cfg.AuthScheme.
func NewGitLabGateway(cfg config.Config, logger logrus.FieldLogger) (*GitLabGateway, error) {
	if cfg.Token == "" {
		return nil, config.ErrMissingToken
	}
	base := http.DefaultTransport

	var transport http.RoundTripper
	switch cfg.AuthScheme {
	case config.AuthPrivateToken, "":
		transport = &privateTokenTransport{base: base, token: cfg.Token}
	case config.AuthBearer:
		transport = &oauth2.Transport{
			Base:   base,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		}
	default:
		return nil, fmt.Errorf("unsupported auth scheme %q", cfg.AuthScheme)
	}

	return &GitLabGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		maxPages: cfg.MaxPages,
		logger:   logger,
	}, nil
}

// get issues an authenticated GET, decodes a 2xx JSON body into target and returns the response headers.
func (g *GitLabGateway) get(ctx context.Context, rawURL string, target any) (http.Header, error) {
	g.logger.Debugf("Making API request to: %s", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		g.logger.Debugf("API request failed with status %d: %s", resp.StatusCode, body)
		return nil, &APIError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return resp.Header, nil
}

// FetchGroup resolves a full group path, which may contain slashes, to a group.
func (g *GitLabGateway) FetchGroup(ctx context.Context, path string) (*domain.Group, error) {
	// The whole path is a single segment, so inner slashes are sent as %2F.
	endpoint := fmt.Sprintf("%s/api/v4/groups/%s", g.baseURL, url.PathEscape(path))

	var body struct {
		ID       *int64 `json:"id"`
		FullPath string `json:"full_path"`
	}
	if _, err := g.get(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch group %q: %w", path, err)
	}
	if body.ID == nil {
		return nil, fmt.Errorf("group %q response has no id: %w", path, ErrMalformedResponse)
	}
	group := &domain.Group{ID: *body.ID, FullPath: body.FullPath}
	if group.FullPath == "" {
		group.FullPath = path
	}
	g.logger.Debugf("Resolved group %s to ID %d", path, group.ID)
	return group, nil
}

// FetchGroupProjects lists every project in the group and its subgroups, ordered by path.
// It follows the X-Next-Page header until it is absent or a page comes back empty.
func (g *GitLabGateway) FetchGroupProjects(ctx context.Context, groupID int64) ([]domain.Project, error) {
	endpoint := fmt.Sprintf("%s/api/v4/groups/%d/projects", g.baseURL, groupID)
	var allProjects []domain.Project
	page := 1
	fetched := 0

	for {
		query := url.Values{}
		query.Set("include_subgroups", "true")
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))
		query.Set("order_by", "path")

		var projects []domain.Project
		header, err := g.get(ctx, endpoint+"?"+query.Encode(), &projects)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects of group %d (page %d): %w", groupID, page, err)
		}
		fetched++

		g.logger.Debugf("Received %d projects for page %d", len(projects), page)
		if len(projects) == 0 {
			break
		}
		// One page past the cap is fetched so that an empty trailing page still ends cleanly.
		if g.maxPages > 0 && fetched > g.maxPages {
			return nil, fmt.Errorf("group %d returned data on page %d after %d pages: %w", groupID, page, g.maxPages, ErrPageLimitExceeded)
		}
		allProjects = append(allProjects, projects...)

		next := strings.TrimSpace(header.Get(nextPageHeader))
		if next == "" {
			break
		}
		page, err = strconv.Atoi(next)
		if err != nil {
			return nil, fmt.Errorf("invalid %s header %q: %w", nextPageHeader, next, err)
		}
		g.logger.Debug("  Fetching next page of projects...")
	}

	g.logger.Debugf("Completed fetching %d projects for group %d", len(allProjects), groupID)
	return allProjects, nil
}
