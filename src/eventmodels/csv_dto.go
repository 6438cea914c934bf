package eventmodels

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CsvTimeFormat is the timestamp layout used in cached candle and tick files.
const CsvTimeFormat = "2006-01-02 15:04"

// CsvCandleDTO is one row of candles.csv. All fields are strings so that an
// absent candle slot serializes as an empty row.
type CsvCandleDTO struct {
	Time       string `csv:"time"`
	Type       string `csv:"type"`
	Size       string `csv:"size"`
	Volatility string `csv:"volatility"`
	Open       string `csv:"open"`
	High       string `csv:"high"`
	Low        string `csv:"low"`
	Close      string `csv:"close"`
}

func NewCsvCandleDTO(candle *Candle) *CsvCandleDTO {
	if candle == nil {
		return &CsvCandleDTO{}
	}

	return &CsvCandleDTO{
		Time:       candle.Properties.Time.Format(CsvTimeFormat),
		Type:       candle.Properties.Type.String(),
		Size:       strconv.FormatFloat(candle.Properties.Size, 'f', -1, 64),
		Volatility: strconv.FormatFloat(candle.Properties.Volatility, 'f', -1, 64),
		Open:       candle.EdgePrices.Open.String(),
		High:       candle.EdgePrices.High.String(),
		Low:        candle.EdgePrices.Low.String(),
		Close:      candle.EdgePrices.Close.String(),
	}
}

func (dto *CsvCandleDTO) ToModel() (*Candle, error) {
	if dto.Time == "" {
		return nil, nil
	}

	t, err := time.Parse(CsvTimeFormat, dto.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candle time %q: %w", dto.Time, err)
	}

	candleType, err := parseCandleType(dto.Type)
	if err != nil {
		return nil, err
	}

	size, err := strconv.ParseFloat(dto.Size, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candle size %q: %w", dto.Size, err)
	}

	volatility, err := strconv.ParseFloat(dto.Volatility, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candle volatility %q: %w", dto.Volatility, err)
	}

	prices := make([]decimal.Decimal, 4)
	for i, raw := range []string{dto.Open, dto.High, dto.Low, dto.Close} {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse candle price %q: %w", raw, err)
		}
		prices[i] = price
	}

	return &Candle{
		Properties: CandleProperties{
			Time:       t,
			Type:       candleType,
			Size:       size,
			Volatility: volatility,
		},
		EdgePrices: CandleEdgePrices{
			Open:  prices[0],
			High:  prices[1],
			Low:   prices[2],
			Close: prices[3],
		},
	}, nil
}

func parseCandleType(s string) (CandleType, error) {
	switch s {
	case "Green":
		return CandleTypeGreen, nil
	case "Red":
		return CandleTypeRed, nil
	case "Neutral":
		return CandleTypeNeutral, nil
	default:
		return CandleTypeNeutral, fmt.Errorf("unknown candle type: %s", s)
	}
}

// CsvTickDTO is one row of ticks.csv.
type CsvTickDTO struct {
	Time string `csv:"time"`
	Ask  string `csv:"ask"`
	Bid  string `csv:"bid"`
}

func NewCsvTickDTO(tick *Tick) *CsvTickDTO {
	if tick == nil {
		return &CsvTickDTO{}
	}

	return &CsvTickDTO{
		Time: tick.Time.Format(CsvTimeFormat),
		Ask:  tick.Ask.String(),
		Bid:  tick.Bid.String(),
	}
}

func (dto *CsvTickDTO) ToModel() (*Tick, error) {
	if dto.Time == "" {
		return nil, nil
	}

	t, err := time.Parse(CsvTimeFormat, dto.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tick time %q: %w", dto.Time, err)
	}

	ask, err := decimal.NewFromString(dto.Ask)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tick ask %q: %w", dto.Ask, err)
	}

	bid, err := decimal.NewFromString(dto.Bid)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tick bid %q: %w", dto.Bid, err)
	}

	return &Tick{Time: t, Ask: ask, Bid: bid}, nil
}
