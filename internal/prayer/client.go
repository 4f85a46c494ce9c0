package prayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DateLayout is the DD-MM-YYYY form the upstream expects in the path.
const DateLayout = "02-01-2006"

var (
	// ErrUpstreamStatus is returned when the API answers with a non-200 status.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrNoTimings is returned when the response has no timings mapping.
	ErrNoTimings = errors.New("response has no timings")
)

// Options configures the request sent to the prayer-times API.
type Options struct {
	BaseURL  string
	City     string
	Country  string
	Method   int
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client fetches daily prayer times for one fixed location.
type Client struct {
	opts  Options
	http  *http.Client
	cache Cache
	log   *zerolog.Logger
}

// NewClient builds a client. cache may be nil to disable caching.
func NewClient(opts Options, cache Cache, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		opts:  opts,
		http:  &http.Client{Timeout: opts.Timeout},
		cache: cache,
		log:   logger,
	}
}

type timingsResponse struct {
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// URL returns the request URL for the given day.
func (c *Client) URL(date time.Time) string {
	q := url.Values{}
	q.Set("city", c.opts.City)
	q.Set("country", c.opts.Country)
	q.Set("method", strconv.Itoa(c.opts.Method))
	// url.Values encodes spaces as '+'; a literal '+' is always escaped, so this is lossless
	query := strings.ReplaceAll(q.Encode(), "+", "%20")

	return fmt.Sprintf("%s/v1/timingsByCity/%s?%s",
		strings.TrimRight(c.opts.BaseURL, "/"),
		date.Format(DateLayout),
		query,
	)
}

// CacheKey identifies the timings of one location and day.
func (c *Client) CacheKey(date time.Time) string {
	return fmt.Sprintf("prayer:%s:%s:%d:%s",
		strings.ToLower(c.opts.City),
		strings.ToLower(c.opts.Country),
		c.opts.Method,
		date.Format(DateLayout),
	)
}

// Fetch returns the timings for date, consulting the cache first.
// Cache failures are logged and treated as misses.
func (c *Client) Fetch(ctx context.Context, date time.Time) (Timings, error) {
	key := c.CacheKey(date)

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("prayer times cache read failed")
		} else if ok {
			c.log.Debug().Str("key", key).Msg("prayer times cache hit")
			return cached, nil
		}
	}

	timings, err := c.fetchRemote(ctx, date)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, timings, c.opts.CacheTTL); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("prayer times cache write failed")
		}
	}

	return timings, nil
}

func (c *Client) fetchRemote(ctx context.Context, date time.Time) (Timings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(date), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get prayer times: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var body timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode prayer times: %w", err)
	}
	if len(body.Data.Timings) == 0 {
		return nil, ErrNoTimings
	}

	return Timings(body.Data.Timings), nil
}
