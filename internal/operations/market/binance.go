package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ForexTradeBot/internal/models"

	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// granularityIntervals maps candle granularities to venue kline intervals.
var granularityIntervals = map[string]string{
	models.GranularityM5: "5m",
	models.GranularityH1: "1h",
	models.GranularityH4: "4h",
	models.GranularityD:  "1d",
}

// granularityDurations is the bar length per granularity.
var granularityDurations = map[string]time.Duration{
	models.GranularityM5: 5 * time.Minute,
	models.GranularityH1: time.Hour,
	models.GranularityH4: 4 * time.Hour,
	models.GranularityD:  24 * time.Hour,
}

// instrumentSymbol converts an instrument name like EUR_USD into the
// venue's symbol form.
func instrumentSymbol(instrument string) string {
	return strings.ReplaceAll(instrument, "_", "")
}

// Client wraps the exchange API with a rate limiter and retries.
type Client struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	httpClient  *http.Client
	log         *zap.Logger
}

func NewClient(apiKey, secretKey string, log *zap.Logger) *Client {
	// Custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	apiClient := futures.NewClient(apiKey, secretKey)
	apiClient.HTTPClient = httpClient

	// 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &Client{
		client:      apiClient,
		rateLimiter: limiter,
		httpClient:  httpClient,
		log:         log,
	}
}

// GetCandles returns the most recent count candles for an instrument.
func (c *Client) GetCandles(ctx context.Context, instrument, granularity string, count int) ([]models.Candle, error) {
	interval, ok := granularityIntervals[granularity]
	if !ok {
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	klines, err := c.klinesWithRetry(ctx, func(ctx context.Context) ([]*futures.Kline, error) {
		return c.client.NewKlinesService().
			Symbol(instrumentSymbol(instrument)).
			Interval(interval).
			Limit(count).
			Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, ErrDataUnavailable
	}

	return c.toCandles(instrument, granularity, klines), nil
}

// GetCandlesRange returns candles between start and end, chunked to stay
// under the venue's per-request limit.
func (c *Client) GetCandlesRange(ctx context.Context, instrument, granularity string, start, end time.Time) ([]models.Candle, error) {
	interval, ok := granularityIntervals[granularity]
	if !ok {
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	// 500 bars per chunk
	chunk := granularityDurations[granularity] * 500
	var all []models.Candle

	for currentStart := start; currentStart.Before(end); {
		currentEnd := currentStart.Add(chunk)
		if currentEnd.After(end) {
			currentEnd = end
		}

		startMs := currentStart.UnixNano() / int64(time.Millisecond)
		endMs := currentEnd.UnixNano() / int64(time.Millisecond)

		klines, err := c.klinesWithRetry(ctx, func(ctx context.Context) ([]*futures.Kline, error) {
			return c.client.NewKlinesService().
				Symbol(instrumentSymbol(instrument)).
				Interval(interval).
				StartTime(startMs).
				EndTime(endMs).
				Limit(500).
				Do(ctx)
		})
		if err != nil {
			return nil, err
		}

		all = append(all, c.toCandles(instrument, granularity, klines)...)
		currentStart = currentEnd
	}

	return all, nil
}

// GetQuote derives a quote from the latest candle close and the standard
// spread for the pair.
func (c *Client) GetQuote(ctx context.Context, instrument string) (*Quote, error) {
	candles, err := c.GetCandles(ctx, instrument, models.GranularityM5, 1)
	if err != nil {
		return nil, err
	}

	mid := candles[0].Close
	spreadPips := models.SpreadPips(instrument)
	half := models.PipsToPrice(instrument, spreadPips/2)

	return &Quote{
		Instrument: instrument,
		Bid:        models.RoundPrice(instrument, mid-half),
		Ask:        models.RoundPrice(instrument, mid+half),
		Mid:        mid,
		SpreadPips: spreadPips,
	}, nil
}

// klinesWithRetry runs a kline request through the rate limiter with
// exponential backoff.
func (c *Client) klinesWithRetry(ctx context.Context, call func(context.Context) ([]*futures.Kline, error)) ([]*futures.Kline, error) {
	maxRetries := 3
	backoff := 100 * time.Millisecond

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := call(ctx)
		if err == nil {
			return klines, nil
		}
		if attempt == maxRetries {
			return nil, err
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		c.log.Warn("kline request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", waitTime),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

func (c *Client) toCandles(instrument, granularity string, klines []*futures.Kline) []models.Candle {
	candles := make([]models.Candle, 0, len(klines))
	now := time.Now()
	for _, k := range klines {
		closeTime := time.Unix(k.CloseTime/1000, 0)
		candles = append(candles, models.Candle{
			Instrument:  instrument,
			Granularity: granularity,
			Time:        time.Unix(k.OpenTime/1000, 0),
			Open:        c.parseFloat(k.Open),
			High:        c.parseFloat(k.High),
			Low:         c.parseFloat(k.Low),
			Close:       c.parseFloat(k.Close),
			Volume:      c.parseFloat(k.Volume),
			Complete:    closeTime.Before(now),
		})
	}
	return candles
}

func (c *Client) parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.log.Error("parsing price field", zap.String("value", s), zap.Error(err))
		return 0
	}
	return f
}
