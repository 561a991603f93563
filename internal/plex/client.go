// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

// ErrLibraryNotFound is returned when no library section has the requested title.
var ErrLibraryNotFound = errors.New("library section not found")

// MediaServer is the subset of the media server used by the rotation service.
type MediaServer interface {
	// SectionByName resolves a library section by its title.
	SectionByName(ctx context.Context, name string) (*Section, error)

	// Collections lists the collections of a section keyed by title.
	Collections(ctx context.Context, sectionKey string) (map[string]Collection, error)

	// UpdateVisibility sets the promotion flags of one collection.
	UpdateVisibility(ctx context.Context, sectionKey, ratingKey string, vis rotation.Visibility) error
}

// Section is a Plex library section.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Collection is a collection inside a library section.
type Collection struct {
	RatingKey  string `json:"ratingKey"`
	Title      string `json:"title"`
	ChildCount int    `json:"childCount,omitempty"`
}

type sectionsResponse struct {
	MediaContainer struct {
		Size      int       `json:"size"`
		Directory []Section `json:"Directory"`
	} `json:"MediaContainer"`
}

type collectionsResponse struct {
	MediaContainer struct {
		Size     int          `json:"size"`
		Metadata []Collection `json:"Metadata"`
	} `json:"MediaContainer"`
}

type identityResponse struct {
	MediaContainer struct {
		MachineIdentifier string `json:"machineIdentifier"`
		Version           string `json:"version"`
	} `json:"MediaContainer"`
}

// Client handles communication with the Plex Media Server API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	baseDelay  time.Duration
}

// NewClient creates a Plex API client. A zero timeout falls back to 30 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseDelay: time.Second,
	}
}

// Ping checks connectivity and returns the server version.
//
// Endpoint: GET /identity
func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp identityResponse
	if err := c.doJSONRequest(ctx, "identity", "/identity", &resp); err != nil {
		return "", err
	}
	return resp.MediaContainer.Version, nil
}

// Sections lists all library sections.
//
// Endpoint: GET /library/sections
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var resp sectionsResponse
	if err := c.doJSONRequest(ctx, "sections", "/library/sections", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// SectionByName returns the section whose title matches name exactly.
func (c *Client) SectionByName(ctx context.Context, name string) (*Section, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Title == name {
			return &sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrLibraryNotFound, name)
}

// Collections lists the collections of a section keyed by title. When two
// collections share a title the first one returned by Plex is kept.
//
// Endpoint: GET /library/sections/{sectionKey}/collections
func (c *Client) Collections(ctx context.Context, sectionKey string) (map[string]Collection, error) {
	var resp collectionsResponse
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/collections"
	if err := c.doJSONRequest(ctx, "collections", path, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]Collection, len(resp.MediaContainer.Metadata))
	for _, col := range resp.MediaContainer.Metadata {
		if _, ok := out[col.Title]; !ok {
			out[col.Title] = col
		}
	}
	return out, nil
}

// UpdateVisibility sets where a collection is promoted.
//
// Endpoint: POST /hubs/sections/{sectionKey}/manage
func (c *Client) UpdateVisibility(ctx context.Context, sectionKey, ratingKey string, vis rotation.Visibility) error {
	query := url.Values{}
	query.Set("metadataItemId", ratingKey)
	query.Set("promotedToRecommended", flag(vis.Recommended))
	query.Set("promotedToOwnHome", flag(vis.Home))
	query.Set("promotedToSharedHome", flag(vis.Shared))

	return c.doRequest(ctx, requestConfig{
		endpoint:    "manage_hub",
		method:      http.MethodPost,
		path:        "/hubs/sections/" + url.PathEscape(sectionKey) + "/manage",
		query:       query,
		acceptJSON:  true,
		expectNoErr: true,
	}, nil)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
