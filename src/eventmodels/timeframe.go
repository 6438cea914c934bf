package eventmodels

import "fmt"

// Timeframe is a bar duration in broker notation.
type Timeframe string

const (
	TimeframeOneMinute      Timeframe = "1m"
	TimeframeFifteenMinutes Timeframe = "15m"
	TimeframeThirtyMinutes  Timeframe = "30m"
	TimeframeOneHour        Timeframe = "1h"
)

// Minutes returns the bar duration in minutes, or 0 for an unknown timeframe.
func (t Timeframe) Minutes() int {
	switch t {
	case TimeframeOneMinute:
		return 1
	case TimeframeFifteenMinutes:
		return 15
	case TimeframeThirtyMinutes:
		return 30
	case TimeframeOneHour:
		return 60
	default:
		return 0
	}
}

func (t Timeframe) String() string {
	return string(t)
}

func ParseTimeframe(s string) (Timeframe, error) {
	timeframe := Timeframe(s)
	if timeframe.Minutes() == 0 {
		return "", fmt.Errorf("unknown timeframe: %s", s)
	}
	return timeframe, nil
}
