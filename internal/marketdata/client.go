package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"trading-journal-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	baseURL = "https://www.alphavantage.co"

	// Candle padding around the requested trade window so charts show
	// context before the entry and after the exit.
	paddingBefore = 100
	paddingAfter  = 20
)

// Candle is one daily OHLC bar.
type Candle struct {
	Time  string  `json:"time"` // YYYY-MM-DD
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// ClientInterface defines the price-series provider contract.
type ClientInterface interface {
	GetDailyCandles(ctx context.Context, symbol, startDate, endDate string) ([]Candle, error)
}

// Client fetches daily candles from Alpha Vantage.
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Alpha Vantage client.
func NewClient(cfg *config.MarketData, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(baseURL)

	// rate.Limit is requests per second; Alpha Vantage free tier is tight.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		apiKey:  cfg.ApiKey,
		logger:  logger.Named("marketdata"),
		limiter: limiter,
	}
}

// dailyResponse mirrors the TIME_SERIES_DAILY payload. Rate-limit notices and
// errors come back with HTTP 200 and one of the message fields set.
type dailyResponse struct {
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	ErrorMessage string                       `json:"Error Message"`
}

// GetDailyCandles fetches daily OHLC bars for the symbol and returns the
// candles overlapping [startDate, endDate] with padding bars on both sides.
// Dates accept any ISO-8601 prefix; only the YYYY-MM-DD part is used.
func (c *Client) GetDailyCandles(ctx context.Context, symbol, startDate, endDate string) ([]Candle, error) {
	var result dailyResponse

	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY",
			"symbol":     symbol,
			"outputsize": "compact",
			"apikey":     c.apiKey,
		}).
		SetResult(&result)

	resp, err := c.doRequest(ctx, "GET", "/query", req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}

	result = *resp.Result().(*dailyResponse)
	if len(result.TimeSeries) == 0 {
		msg := result.ErrorMessage
		if msg == "" {
			msg = result.Note
		}
		if msg == "" {
			msg = result.Information
		}
		if msg == "" {
			msg = "unexpected Alpha Vantage response"
		}
		return nil, fmt.Errorf("alpha vantage: %s", msg)
	}

	return windowCandles(result.TimeSeries, startDate, endDate), nil
}

// windowCandles selects the candles overlapping the trade window plus padding.
func windowCandles(series map[string]map[string]string, startDate, endDate string) []Candle {
	start := truncateDate(startDate)
	end := truncateDate(endDate)

	allDates := make([]string, 0, len(series))
	for d := range series {
		allDates = append(allDates, d)
	}
	sort.Strings(allDates) // oldest first

	firstIdx, lastIdx := -1, -1
	for i, d := range allDates {
		if firstIdx == -1 && d >= start {
			firstIdx = i
		}
		if d <= end {
			lastIdx = i
		}
	}
	if firstIdx == -1 || lastIdx == -1 {
		return []Candle{}
	}

	fromIdx := max(0, firstIdx-paddingBefore)
	toIdx := min(len(allDates)-1, lastIdx+paddingAfter)

	candles := make([]Candle, 0, toIdx-fromIdx+1)
	for _, d := range allDates[fromIdx : toIdx+1] {
		bar := series[d]
		candles = append(candles, Candle{
			Time:  d,
			Open:  parseBarValue(bar["1. open"]),
			High:  parseBarValue(bar["2. high"]),
			Low:   parseBarValue(bar["3. low"]),
			Close: parseBarValue(bar["4. close"]),
		})
	}
	return candles
}

func truncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func parseBarValue(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
