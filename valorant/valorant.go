package valorant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrNotFound means the riot id has no account behind it.
	ErrNotFound = errors.New("player not found")

	// ErrRateLimited means the stats API rejected the call with 429.
	// There is no retry policy; the user re-invokes the command.
	ErrRateLimited = errors.New("stats api rate limit reached")

	// ErrForbidden means the API key was rejected.
	ErrForbidden = errors.New("stats api rejected the api key")
)

// Account is the identity half of a player lookup.
type Account struct {
	PUUID        string `json:"puuid"`
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Region       string `json:"region"`
	AccountLevel int    `json:"account_level"`
	Card         struct {
		Small string `json:"small"`
	} `json:"card"`
}

// MMR is the competitive standing of a player.
type MMR struct {
	CurrentTier   string `json:"currenttierpatched"`
	RankingInTier int    `json:"ranking_in_tier"`
	MMRChange     int    `json:"mmr_change_to_last_game"`
	Elo           int    `json:"elo"`
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Client talks to a third-party Valorant stats API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey string, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden, http.StatusUnauthorized:
		return ErrForbidden
	default:
		return fmt.Errorf("stats api returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode stats api response: %w", err)
	}

	return json.Unmarshal(env.Data, out)
}

// Account looks a player up by riot id.
func (c *Client) Account(ctx context.Context, name string, tag string) (*Account, error) {
	path := fmt.Sprintf("/v1/account/%s/%s", url.PathEscape(name), url.PathEscape(tag))

	var account Account
	if err := c.get(ctx, path, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// MMR fetches a player's current competitive standing.
func (c *Client) MMR(ctx context.Context, region string, name string, tag string) (*MMR, error) {
	path := fmt.Sprintf("/v2/mmr/%s/%s/%s",
		url.PathEscape(region), url.PathEscape(name), url.PathEscape(tag))

	var mmr struct {
		CurrentData MMR `json:"current_data"`
	}
	if err := c.get(ctx, path, &mmr); err != nil {
		return nil, err
	}

	return &mmr.CurrentData, nil
}
