package eventservices

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/stepfx/backtester/src/backtester/data"
	"github.com/stepfx/backtester/src/eventmodels"
)

const (
	// maxCandlesPerRequest is the provider's hard cap on one candles request.
	maxCandlesPerRequest = 1000

	// volatilityWindow is the trailing period the candle volatility is
	// averaged over.
	volatilityWindow = 7 * 24 * time.Hour

	defaultRequestRetries = 5
	defaultRetrySleep     = 1 * time.Second
)

// RetrySettings controls how transient provider failures are retried.
type RetrySettings struct {
	Retries int
	Sleep   time.Duration
}

func DefaultRetrySettings() RetrySettings {
	return RetrySettings{
		Retries: defaultRequestRetries,
		Sleep:   defaultRetrySleep,
	}
}

var _ data.MarketDataAPI = (*MetaApiClient)(nil)

// MetaApiClient talks to a MetaApi-compatible broker gateway. It implements
// data.MarketDataAPI: historical series come back gap-annotated and, for
// candles, carry a trailing volatility.
type MetaApiClient struct {
	mainAPIURL       string
	marketDataAPIURL string
	accountID        string
	authToken        string
	retry            RetrySettings
	client           *http.Client
}

func NewMetaApiClient(mainAPIURL, marketDataAPIURL, accountID, authToken string, retry RetrySettings) *MetaApiClient {
	return &MetaApiClient{
		mainAPIURL:       mainAPIURL,
		marketDataAPIURL: marketDataAPIURL,
		accountID:        accountID,
		authToken:        authToken,
		retry:            retry,
		client:           &http.Client{Timeout: 30 * time.Second},
	}
}

// NewMetaApiClientFromEnv builds a client from MAIN_API_URL,
// MARKET_DATA_API_URL, ACCOUNT_ID and AUTH_TOKEN.
func NewMetaApiClientFromEnv() (*MetaApiClient, error) {
	required := map[string]string{}
	for _, name := range []string{"MAIN_API_URL", "MARKET_DATA_API_URL", "ACCOUNT_ID", "AUTH_TOKEN"} {
		value := os.Getenv(name)
		if value == "" {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
		required[name] = value
	}

	return NewMetaApiClient(
		required["MAIN_API_URL"],
		required["MARKET_DATA_API_URL"],
		required["ACCOUNT_ID"],
		required["AUTH_TOKEN"],
		DefaultRetrySettings(),
	), nil
}

func (c *MetaApiClient) getJSONWithRetries(requestURL string, target interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.retry.Retries; attempt++ {
		if attempt > 0 {
			log.Warnf("retrying request (%d/%d) after error: %v", attempt, c.retry.Retries, lastErr)
			time.Sleep(c.retry.Sleep)
		}

		lastErr = c.getJSON(requestURL, target)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("request failed after %d retries: %w", c.retry.Retries, lastErr)
}

func (c *MetaApiClient) getJSON(requestURL string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("auth-token", c.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type candleDTO struct {
	Time  time.Time       `json:"time"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

type priceDTO struct {
	Time time.Time       `json:"time"`
	Ask  decimal.Decimal `json:"ask"`
	Bid  decimal.Decimal `json:"bid"`
}

func (c *MetaApiClient) candlesURL(symbol string, timeframe eventmodels.Timeframe, startTime time.Time, limit int) string {
	return fmt.Sprintf(
		"%s/users/current/accounts/%s/historical-market-data/symbols/%s/timeframes/%s/candles?startTime=%s&limit=%d",
		c.marketDataAPIURL,
		c.accountID,
		url.PathEscape(symbol),
		timeframe,
		url.QueryEscape(startTime.UTC().Format(time.RFC3339)),
		limit,
	)
}

// GetCurrentTick returns the latest quoted price of the symbol.
func (c *MetaApiClient) GetCurrentTick(symbol string) (*eventmodels.Tick, error) {
	requestURL := fmt.Sprintf(
		"%s/users/current/accounts/%s/symbols/%s/current-price",
		c.mainAPIURL, c.accountID, url.PathEscape(symbol),
	)

	var dto priceDTO
	if err := c.getJSONWithRetries(requestURL, &dto); err != nil {
		return nil, fmt.Errorf("failed to get current price for %s: %w", symbol, err)
	}

	return &eventmodels.Tick{Time: dto.Time, Ask: dto.Ask, Bid: dto.Bid}, nil
}

// GetCurrentCandle returns the forming candle of the symbol.
func (c *MetaApiClient) GetCurrentCandle(symbol string, timeframe eventmodels.Timeframe) (*eventmodels.Candle, error) {
	requestURL := fmt.Sprintf(
		"%s/users/current/accounts/%s/symbols/%s/current-candles/%s",
		c.mainAPIURL, c.accountID, url.PathEscape(symbol), timeframe,
	)

	var dto candleDTO
	if err := c.getJSONWithRetries(requestURL, &dto); err != nil {
		return nil, fmt.Errorf("failed to get current candle for %s: %w", symbol, err)
	}

	return newCandleFromDTO(dto, 0), nil
}

func newCandleFromDTO(dto candleDTO, volatility float64) *eventmodels.Candle {
	return &eventmodels.Candle{
		Properties: eventmodels.CandleProperties{
			Time:       dto.Time,
			Type:       eventmodels.NewCandleType(dto.Open, dto.Close),
			Size:       eventmodels.PriceToPoints(dto.High.Sub(dto.Low)),
			Volatility: volatility,
		},
		EdgePrices: eventmodels.CandleEdgePrices{
			Open:  dto.Open,
			High:  dto.High,
			Low:   dto.Low,
			Close: dto.Close,
		},
	}
}

// fetchCandleBlocks pages backwards from endTime until the requested number
// of candles is collected or the provider runs out of history. Adjacent
// requests overlap by one candle, so each block past the first contributes
// limit-1 new rows.
func (c *MetaApiClient) fetchCandleBlocks(symbol string, timeframe eventmodels.Timeframe, endTime time.Time, totalCandles int) ([]candleDTO, error) {
	collected := make([]candleDTO, 0, totalCandles)
	cursor := endTime

	for len(collected) < totalCandles {
		limit := totalCandles - len(collected)
		if len(collected) > 0 {
			limit++ // the overlapping candle
		}
		if limit > maxCandlesPerRequest {
			limit = maxCandlesPerRequest
		}

		var block []candleDTO
		if err := c.getJSONWithRetries(c.candlesURL(symbol, timeframe, cursor, limit), &block); err != nil {
			return nil, fmt.Errorf("failed to fetch candles block for %s: %w", symbol, err)
		}

		if len(collected) > 0 && len(block) > 0 {
			// drop the overlap with the previous block
			block = block[:len(block)-1]
		}

		if len(block) == 0 {
			log.Warnf("provider history for %s exhausted after %d candles", symbol, len(collected))
			break
		}

		// blocks arrive oldest-first; prepend to keep the whole series ordered
		collected = append(block, collected...)
		cursor = block[0].Time
	}

	return collected, nil
}

func volatilityWindowUnits(timeframe eventmodels.Timeframe) int {
	return int(volatilityWindow/time.Minute) / timeframe.Minutes()
}

// annotateVolatility computes each candle's trailing mean size over the
// volatility window. Candles fetched only to fill the first window are
// dropped from the result.
func annotateVolatility(dtos []candleDTO, timeframe eventmodels.Timeframe) ([]*eventmodels.Candle, error) {
	window := volatilityWindowUnits(timeframe)
	if len(dtos) < window {
		return nil, fmt.Errorf("not enough candles for a volatility window: got %d, need %d", len(dtos), window)
	}

	sizes := make([]float64, len(dtos))
	for i, dto := range dtos {
		sizes[i] = eventmodels.PriceToPoints(dto.High.Sub(dto.Low))
	}

	candles := make([]*eventmodels.Candle, 0, len(dtos)-window+1)
	for i := window - 1; i < len(dtos); i++ {
		mean, err := stats.Mean(sizes[i-window+1 : i+1])
		if err != nil {
			return nil, fmt.Errorf("failed to compute volatility: %w", err)
		}
		candles = append(candles, newCandleFromDTO(dtos[i], mean))
	}

	return candles, nil
}

// GetHistoricalCandles returns the gap-annotated candle series covering
// duration up to endTime. Extra history is fetched in front of the range so
// the very first returned candle already carries a full volatility window.
func (c *MetaApiClient) GetHistoricalCandles(symbol string, timeframe eventmodels.Timeframe, endTime time.Time, duration time.Duration) ([]*eventmodels.Candle, error) {
	if timeframe.Minutes() == 0 {
		return nil, fmt.Errorf("unknown timeframe: %s", timeframe)
	}

	rangeUnits := int(duration/time.Minute) / timeframe.Minutes()
	totalCandles := rangeUnits + volatilityWindowUnits(timeframe) - 1

	dtos, err := c.fetchCandleBlocks(symbol, timeframe, endTime, totalCandles)
	if err != nil {
		return nil, err
	}

	candles, err := annotateVolatility(dtos, timeframe)
	if err != nil {
		return nil, err
	}

	filled, err := data.FillCandleGaps(candles, timeframe)
	if err != nil {
		return nil, fmt.Errorf("irregular candle series for %s: %w", symbol, err)
	}

	log.Infof("fetched %d %s candles for %s", len(filled), timeframe, symbol)

	return filled, nil
}

// GetHistoricalTicks derives the gap-annotated tick series from fine candles:
// each candle close becomes one tick with ask and bid both at the close.
func (c *MetaApiClient) GetHistoricalTicks(symbol string, timeframe eventmodels.Timeframe, endTime time.Time, duration time.Duration) ([]*eventmodels.Tick, error) {
	if timeframe.Minutes() == 0 {
		return nil, fmt.Errorf("unknown timeframe: %s", timeframe)
	}

	totalCandles := int(duration/time.Minute) / timeframe.Minutes()

	dtos, err := c.fetchCandleBlocks(symbol, timeframe, endTime, totalCandles)
	if err != nil {
		return nil, err
	}

	ticks := make([]*eventmodels.Tick, 0, len(dtos))
	for _, dto := range dtos {
		ticks = append(ticks, &eventmodels.Tick{
			Time: dto.Time,
			Ask:  dto.Close,
			Bid:  dto.Close,
		})
	}

	filled, err := data.FillTickGaps(ticks, timeframe)
	if err != nil {
		return nil, fmt.Errorf("irregular tick series for %s: %w", symbol, err)
	}

	log.Infof("fetched %d %s ticks for %s", len(filled), timeframe, symbol)

	return filled, nil
}
