package oddsapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/msfttoler/sports/pkg/models"
)

const (
	// DefaultBaseURL is The Odds API v4 root
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	defaultRateLimit = 2.0 // requests per second
	defaultBurst     = 1
	defaultTimeout   = 30 * time.Second
)

// Client is a The Odds API client
type Client struct {
	apiKey     string
	regions    string
	markets    string
	oddsFormat string
	http       *resty.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.http.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	}
}

// WithRateLimit sets custom rate limiting
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMarkets overrides regions, markets and odds format
func WithMarkets(regions, markets, oddsFormat string) ClientOption {
	return func(c *Client) {
		c.regions = regions
		c.markets = markets
		c.oddsFormat = oddsFormat
	}
}

// WithRetries sets the retry count for transient failures
func WithRetries(count int) ClientOption {
	return func(c *Client) {
		c.http.SetRetryCount(count)
	}
}

// NewClient creates a new odds client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		regions:    "us,us2",
		markets:    models.MarketH2H,
		oddsFormat: "american",
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(defaultTimeout).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second).
			SetRetryMaxWaitTime(10*time.Second).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Sport is an entry of the /sports listing
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

type apiOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

type apiMarket struct {
	Key        string       `json:"key"`
	LastUpdate *time.Time   `json:"last_update"`
	Outcomes   []apiOutcome `json:"outcomes"`
}

type apiBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate *time.Time  `json:"last_update"`
	Markets    []apiMarket `json:"markets"`
}

type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

// GetSports lists sports currently offered by the provider
func (c *Client) GetSports(ctx context.Context) ([]Sport, error) {
	var sports []Sport
	if _, err := c.get(ctx, "/sports", nil, &sports); err != nil {
		return nil, err
	}
	return sports, nil
}

// GetOdds fetches current odds for one sport. Each bookmaker market
// becomes its own BookmakerQuote.
func (c *Client) GetOdds(ctx context.Context, sportKey string) ([]models.Event, *models.APIUsage, error) {
	params := map[string]string{
		"regions":    c.regions,
		"markets":    c.markets,
		"oddsFormat": c.oddsFormat,
	}

	var raw []apiEvent
	resp, err := c.get(ctx, "/sports/"+sportKey+"/odds", params, &raw)
	if err != nil {
		return nil, nil, err
	}

	events := make([]models.Event, 0, len(raw))
	for _, item := range raw {
		events = append(events, toEvent(item, sportKey))
	}

	return events, c.usage(resp.Header()), nil
}

func toEvent(item apiEvent, sportKey string) models.Event {
	evt := models.Event{
		ID:           item.ID,
		SportKey:     item.SportKey,
		SportTitle:   item.SportTitle,
		HomeTeam:     item.HomeTeam,
		AwayTeam:     item.AwayTeam,
		CommenceTime: item.CommenceTime,
	}
	if evt.SportKey == "" {
		evt.SportKey = sportKey
	}
	if evt.SportTitle == "" {
		evt.SportTitle = evt.SportKey
	}

	for _, bm := range item.Bookmakers {
		for _, mkt := range bm.Markets {
			outcomes := make([]models.OddsOutcome, 0, len(mkt.Outcomes))
			for _, o := range mkt.Outcomes {
				outcomes = append(outcomes, models.OddsOutcome{
					Name:  o.Name,
					Price: int(math.Round(o.Price)),
					Point: o.Point,
				})
			}

			lastUpdate := bm.LastUpdate
			if mkt.LastUpdate != nil {
				lastUpdate = mkt.LastUpdate
			}

			evt.Bookmakers = append(evt.Bookmakers, models.BookmakerQuote{
				BookmakerKey:   bm.Key,
				BookmakerTitle: bm.Title,
				MarketKey:      mkt.Key,
				Outcomes:       outcomes,
				LastUpdate:     lastUpdate,
			})
		}
	}

	return evt
}

// usage reads quota headers. Missing or malformed values stay nil.
func (c *Client) usage(h http.Header) *models.APIUsage {
	used := headerInt(h, "x-requests-used")
	remaining := headerInt(h, "x-requests-remaining")
	if used == nil && remaining == nil {
		return nil
	}
	return &models.APIUsage{
		RequestsUsed:      used,
		RequestsRemaining: remaining,
		RecordedAt:        c.now().UTC(),
	}
}

func headerInt(h http.Header, key string) *int {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return nil
	}
	// the provider sometimes reports fractional usage
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// get performs a rate limited GET
func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("apiKey", c.apiKey).
		SetResult(result)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		// url.Error carries the query string, which holds the key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("odds api request %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	return resp, nil
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("odds api %s: status %d: %s", e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}
