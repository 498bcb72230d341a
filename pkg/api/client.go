// Package api implements the remote suggestion endpoints over HTTP.
//
// Two read-only endpoints exist per parent site: cross-post candidates at
// /sites/{hostname}/xposts and mention candidates at
// /sites/{hostname}/users/suggest. Both return JSON and are decoded into
// the suggest variants.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/mentionserve/pkg/suggest"
)

// Client fetches suggestion sets from the remote API. Implements
// suggest.Fetcher.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL. A nil
// httpClient uses a default with a 10s overall timeout; the coordinator's
// per-fetch context deadline still applies on top.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api: empty base URL")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api: invalid base URL %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// xpostPayload is one site object in the xposts response array.
type xpostPayload struct {
	Subdomain string `json:"subdomain"`
	Title     string `json:"title"`
	SiteURL   string `json:"site_url"`
	Image     string `json:"image"`
}

// mentionPayload is one user object in the users/suggest response.
type mentionPayload struct {
	UserLogin   string `json:"user_login"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_URL"`
}

type mentionEnvelope struct {
	Suggestions []mentionPayload `json:"suggestions"`
}

// Fetch retrieves the full suggestion set for site. Transport failures and
// non-200 statuses surface as TransportError, malformed payloads as
// DecodeError.
func (c *Client) Fetch(ctx context.Context, site string, kind suggest.Kind) ([]suggest.Suggestion, error) {
	if site == "" {
		return nil, suggest.ErrHostnameUnavailable
	}

	body, err := c.get(ctx, c.endpoint(site, kind))
	if err != nil {
		return nil, err
	}

	if kind == suggest.KindCrossPost {
		return decodeXposts(body)
	}
	return decodeMentions(body)
}

func (c *Client) endpoint(site string, kind suggest.Kind) string {
	if kind == suggest.KindCrossPost {
		return fmt.Sprintf("%s/sites/%s/xposts", c.baseURL, url.PathEscape(site))
	}
	return fmt.Sprintf("%s/sites/%s/users/suggest", c.baseURL, url.PathEscape(site))
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &suggest.TransportError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &suggest.TransportError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debugf("GET %s returned %d", endpoint, resp.StatusCode)
		return nil, &suggest.TransportError{Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &suggest.TransportError{Cause: err}
	}
	return body, nil
}

func decodeXposts(body []byte) ([]suggest.Suggestion, error) {
	var payload []xpostPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &suggest.DecodeError{Cause: err}
	}

	items := make([]suggest.Suggestion, 0, len(payload))
	for _, p := range payload {
		if p.Subdomain == "" {
			continue
		}
		items = append(items, suggest.SiteSuggestion{
			Subdomain: p.Subdomain,
			Title:     p.Title,
			SiteURL:   p.SiteURL,
			ImageURL:  p.Image,
		})
	}
	return items, nil
}

func decodeMentions(body []byte) ([]suggest.Suggestion, error) {
	var envelope mentionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &suggest.DecodeError{Cause: err}
	}

	items := make([]suggest.Suggestion, 0, len(envelope.Suggestions))
	for _, p := range envelope.Suggestions {
		if p.UserLogin == "" {
			continue
		}
		items = append(items, suggest.UserSuggestion{
			Login:       p.UserLogin,
			DisplayName: p.DisplayName,
			ImageURL:    p.ImageURL,
		})
	}
	return items, nil
}
