package provider

import (
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

// Interval is a bar width in exchange notation, e.g. "1m" or "4h".
type Interval string

const (
	IntervalOneSecond      Interval = "1s"
	IntervalOneMinute      Interval = "1m"
	IntervalThreeMinutes   Interval = "3m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalTwoHours       Interval = "2h"
	IntervalFourHours      Interval = "4h"
	IntervalSixHours       Interval = "6h"
	IntervalEightHours     Interval = "8h"
	IntervalTwelveHours    Interval = "12h"
	IntervalOneDay         Interval = "1d"
	IntervalThreeDays      Interval = "3d"
	IntervalOneWeek        Interval = "1w"
	IntervalOneMonth       Interval = "1M"
)

var intervalDurations = map[Interval]time.Duration{
	IntervalOneSecond:      time.Second,
	IntervalOneMinute:      time.Minute,
	IntervalThreeMinutes:   3 * time.Minute,
	IntervalFiveMinutes:    5 * time.Minute,
	IntervalFifteenMinutes: 15 * time.Minute,
	IntervalThirtyMinutes:  30 * time.Minute,
	IntervalOneHour:        time.Hour,
	IntervalTwoHours:       2 * time.Hour,
	IntervalFourHours:      4 * time.Hour,
	IntervalSixHours:       6 * time.Hour,
	IntervalEightHours:     8 * time.Hour,
	IntervalTwelveHours:    12 * time.Hour,
	IntervalOneDay:         24 * time.Hour,
	IntervalThreeDays:      72 * time.Hour,
	IntervalOneWeek:        7 * 24 * time.Hour,
	IntervalOneMonth:       30 * 24 * time.Hour,
}

// ParseInterval validates s against the supported intervals.
func ParseInterval(s string) (Interval, error) {
	interval := Interval(s)
	if _, ok := intervalDurations[interval]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "invalid interval %q", s)
	}

	return interval, nil
}

// Duration returns the width of one bar. A month counts as 30 days.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

func (i Interval) Multiplier() int {
	switch i {
	case IntervalThreeMinutes, IntervalThreeDays:
		return 3
	case IntervalFiveMinutes:
		return 5
	case IntervalFifteenMinutes:
		return 15
	case IntervalThirtyMinutes:
		return 30
	case IntervalTwoHours:
		return 2
	case IntervalFourHours:
		return 4
	case IntervalSixHours:
		return 6
	case IntervalEightHours:
		return 8
	case IntervalTwelveHours:
		return 12
	default:
		return 1
	}
}

// Timespan returns the polygon aggregate unit of the interval.
func (i Interval) Timespan() models.Timespan {
	switch i {
	case IntervalOneSecond:
		return models.Second
	case IntervalOneMinute, IntervalThreeMinutes, IntervalFiveMinutes, IntervalFifteenMinutes, IntervalThirtyMinutes:
		return models.Minute
	case IntervalOneHour, IntervalTwoHours, IntervalFourHours, IntervalSixHours, IntervalEightHours, IntervalTwelveHours:
		return models.Hour
	case IntervalOneDay, IntervalThreeDays:
		return models.Day
	case IntervalOneWeek:
		return models.Week
	case IntervalOneMonth:
		return models.Month
	default:
		return models.Day
	}
}

// closedBy reports whether the bar opening at start has closed at now.
func (i Interval) closedBy(start time.Time, now time.Time) bool {
	return !start.Add(i.Duration()).After(now)
}
