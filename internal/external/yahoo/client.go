package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/httputil"
	"github.com/wonny/etfrating/pkg/logger"
)

// DefaultBaseURL is the public Yahoo Finance chart host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("yahoo circuit open")

// Client fetches daily history from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo chart client.
// The breaker opens after 3 consecutive failures and lets one request through again after 30s.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}

	st := gobreaker.Settings{Name: "yahoo-chart"}
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	// no-data answers and caller cancellation say nothing about upstream health
	st.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, contracts.ErrNoData) ||
			errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		c.logger.WithFields(map[string]interface{}{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}
	c.breaker = gobreaker.NewCircuitBreaker(st)

	return c
}

// Symbol converts a venue code to the Yahoo symbol (.SH → .SS, .SZ kept)
func Symbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.HasSuffix(code, ".SH") {
		return strings.TrimSuffix(code, ".SH") + ".SS"
	}
	return code
}

// FetchSeries implements contracts.PriceProvider
func (c *Client) FetchSeries(ctx context.Context, code string, from, to time.Time) (*contracts.PriceSeries, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchChart(ctx, code, from, to)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", code, ErrCircuitOpen)
	}
	if err != nil {
		return nil, err
	}

	series := out.(*contracts.PriceSeries)
	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"count": series.Len(),
	}).Debug("Fetched daily series")

	return series, nil
}

// State reports the breaker state (closed, half-open, open)
func (c *Client) State() string {
	return c.breaker.State().String()
}

func (c *Client) fetchChart(ctx context.Context, code string, from, to time.Time) (*contracts.PriceSeries, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.Unix()))
	params.Set("interval", "1d")
	params.Set("events", "history")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(Symbol(code)), params.Encode())

	var resp chartResponse
	err := c.httpClient.GetJSON(ctx, fullURL, &resp)

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", code, err)
	}

	return parseChart(code, &resp)
}
