package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bdaycal/internal/birthday"
)

const (
	// DefaultEndpoint is the public AniList GraphQL endpoint.
	DefaultEndpoint = "https://graphql.anilist.co"

	defaultUserAgent = "bdaycal"
	defaultPerPage   = 50
	defaultTimeout   = 15 * time.Second
)

// birthdaysQuery pages through a user's favourite characters, pulling the
// fields needed to build Character values.
const birthdaysQuery = `query ($user: String, $page: Int, $perPage: Int) {
  User(name: $user) {
    favourites {
      characters(page: $page, perPage: $perPage) {
        pageInfo {
          hasNextPage
        }
        nodes {
          name {
            full
          }
          siteUrl
          dateOfBirth {
            month
            day
          }
        }
      }
    }
  }
}`

// Config controls how the AniList client talks to the API. Zero values
// fall back to sensible defaults.
type Config struct {
	Endpoint  string
	UserAgent string
	PerPage   int
	Timeout   time.Duration
}

// Client fetches favourite-character birthdays from the AniList GraphQL
// API. It owns its HTTP timeout; callers are not expected to impose one.
type Client struct {
	client    *http.Client
	endpoint  string
	userAgent string
	perPage   int
}

// NewClient creates a new AniList client.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		perPage:   cfg.PerPage,
	}
}

type queryVariables struct {
	User    string `json:"user"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

type queryRequest struct {
	Query     string         `json:"query"`
	Variables queryVariables `json:"variables"`
}

// Response shapes use pointers so that missing fields are distinguishable
// from zero values when classifying bad responses.
type queryResponse struct {
	Data *struct {
		User *struct {
			Favourites *struct {
				Characters *characterPage `json:"characters"`
			} `json:"favourites"`
		} `json:"User"`
	} `json:"data"`
}

type characterPage struct {
	PageInfo *struct {
		HasNextPage *bool `json:"hasNextPage"`
	} `json:"pageInfo"`
	Nodes []characterNode `json:"nodes"`
}

type characterNode struct {
	Name *struct {
		Full *string `json:"full"`
	} `json:"name"`
	SiteURL     *string `json:"siteUrl"`
	DateOfBirth *struct {
		Month *int `json:"month"`
		Day   *int `json:"day"`
	} `json:"dateOfBirth"`
}

// FavoriteBirthdays fetches all favourite characters of the given user
// that have a full month+day birthday, following pagination until the
// last page. The result is unsorted.
func (c *Client) FavoriteBirthdays(ctx context.Context, username string) (birthday.Collection, error) {
	var characters birthday.Collection

	for page, hasNext := 1, true; hasNext; page++ {
		pageChars, next, err := c.fetchPage(ctx, username, page)
		if err != nil {
			return nil, err
		}
		characters = append(characters, pageChars...)
		hasNext = next
	}

	slog.Debug("anilist fetch completed", "username", username, "character_count", len(characters))
	return characters, nil
}

func (c *Client) fetchPage(ctx context.Context, username string, page int) (birthday.Collection, bool, error) {
	body, err := json.Marshal(queryRequest{
		Query: birthdaysQuery,
		Variables: queryVariables{
			User:    username,
			Page:    page,
			PerPage: c.perPage,
		},
	})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("anilist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, false, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: status %s", ErrBadResponse, resp.Status)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	if decoded.Data == nil {
		return nil, false, fmt.Errorf("%w: missing response data", ErrBadResponse)
	}
	if decoded.Data.User == nil {
		return nil, false, &NotFoundError{Username: username}
	}
	if decoded.Data.User.Favourites == nil {
		return nil, false, fmt.Errorf("%w: missing favourites", ErrBadResponse)
	}
	chars := decoded.Data.User.Favourites.Characters
	if chars == nil {
		return nil, false, fmt.Errorf("%w: missing characters", ErrBadResponse)
	}
	if chars.PageInfo == nil || chars.PageInfo.HasNextPage == nil {
		return nil, false, fmt.Errorf("%w: missing page info", ErrBadResponse)
	}

	collected := make(birthday.Collection, 0, len(chars.Nodes))
	for _, node := range chars.Nodes {
		ch, ok := characterFromNode(node)
		if !ok {
			continue
		}
		collected = append(collected, ch)
	}

	return collected, *chars.PageInfo.HasNextPage, nil
}

// characterFromNode converts an API node into a Character. Nodes without
// a name, URL or a full month+day birthday are skipped.
func characterFromNode(node characterNode) (birthday.Character, bool) {
	if node.Name == nil || node.Name.Full == nil || node.SiteURL == nil {
		return birthday.Character{}, false
	}
	dob := node.DateOfBirth
	if dob == nil || dob.Month == nil || dob.Day == nil {
		return birthday.Character{}, false
	}

	bd, err := birthday.New(time.Month(*dob.Month), *dob.Day)
	if err != nil {
		slog.Debug("skipping character with invalid birthday",
			"name", *node.Name.Full, "month", *dob.Month, "day", *dob.Day)
		return birthday.Character{}, false
	}

	return birthday.Character{
		Name:     *node.Name.Full,
		URL:      *node.SiteURL,
		Birthday: bd,
	}, true
}
