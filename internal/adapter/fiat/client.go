package fiat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/iho/cake2ct/internal/domain"
)

// Config holds rate client configuration.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	CacheExpiry       time.Duration
}

// Client implements usecase.RateSource against a frankfurter style
// historical rate service. Every resolved (day, pair) is cached for the
// process lifetime: one export easily holds hundreds of rows for the
// same day and the upstream service is rate limited.
type Client struct {
	baseURL    string
	http       *http.Client
	cache      *gocache.Cache
	limiter    *rate.Limiter
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: cfg.Timeout},
		cache:      gocache.New(cfg.CacheExpiry, 10*time.Minute),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Rate returns the base to quote conversion rate on day.
func (c *Client) Rate(ctx context.Context, day time.Time, base, quote string) (decimal.Decimal, error) {
	key := day.UTC().Format("2006-01-02") + "/" + strings.ToUpper(base) + "/" + strings.ToUpper(quote)

	if cached, ok := c.cache.Get(key); ok {
		return cached.(decimal.Decimal), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", domain.ErrRateUnavailable, err)
	}

	value, err := c.fetch(ctx, day, base, quote)
	if err != nil {
		return decimal.Decimal{}, err
	}

	c.cache.SetDefault(key, value)
	c.log.Debug().Str("pair", key).Str("rate", value.String()).Msg("fiat rate resolved")
	return value, nil
}

// fetch performs the HTTP round trip with exponential backoff on
// transient errors. Client errors from the service are permanent: a
// wrong currency code will not get better by retrying.
func (c *Client) fetch(ctx context.Context, day time.Time, base, quote string) (decimal.Decimal, error) {
	addr := fmt.Sprintf("%s/%s?base=%s&symbols=%s",
		c.baseURL,
		day.UTC().Format("2006-01-02"),
		url.QueryEscape(strings.ToUpper(base)),
		url.QueryEscape(strings.ToUpper(quote)),
	)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	retryCount := 0
	var value decimal.Decimal

	err := backoff.Retry(func() error {
		v, err := c.request(ctx, addr, quote)
		if err == nil {
			value = v
			return nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return backoff.Permanent(permanent.err)
		}

		retryCount++
		if retryCount > c.maxRetries {
			return backoff.Permanent(err)
		}

		c.log.Warn().Err(err).Int("retry", retryCount).Str("url", addr).
			Msg("transient rate lookup error, retrying")
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s on %s: %v",
			domain.ErrRateUnavailable, base+"/"+quote, day.UTC().Format("2006-01-02"), err)
	}

	return value, nil
}

func (c *Client) request(ctx context.Context, addr, quote string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return decimal.Decimal{}, &permanentError{err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return decimal.Decimal{}, fmt.Errorf("rate service returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return decimal.Decimal{}, &permanentError{err: fmt.Errorf("rate service returned %s", resp.Status)}
	}

	// UseNumber keeps the provider's decimal text intact; a float64
	// round trip would distort rates the binary format cannot hold.
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decoding rate response: %w", err)
	}

	path := "$.rates." + strings.ToUpper(quote)
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, &permanentError{err: fmt.Errorf("rate %s missing from response: %w", quote, err)}
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	num, ok := jval.(json.Number)
	if !ok {
		return decimal.Decimal{}, &permanentError{err: fmt.Errorf("rate %s is not a number: %v", quote, jval)}
	}

	rate, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Decimal{}, &permanentError{err: fmt.Errorf("rate %s is not a number: %w", quote, err)}
	}
	return rate, nil
}

// permanentError marks lookup failures that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
