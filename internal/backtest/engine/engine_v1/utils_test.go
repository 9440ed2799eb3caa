package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
)

func TestGetResultFolder(t *testing.T) {
	tests := []struct {
		name     string
		start    optional.Option[time.Time]
		end      optional.Option[time.Time]
		expected string
	}{
		{
			name:     "no time window",
			start:    optional.None[time.Time](),
			end:      optional.None[time.Time](),
			expected: filepath.Join("results", "SMACrossover", "period_15", "orcl"),
		},
		{
			name:     "full window",
			start:    optional.Some(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)),
			end:      optional.Some(time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)),
			expected: filepath.Join("results", "SMACrossover", "period_15", "20200102_20201231", "orcl"),
		},
		{
			name:     "open end",
			start:    optional.Some(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)),
			end:      optional.None[time.Time](),
			expected: filepath.Join("results", "SMACrossover", "period_15", "20200102_all", "orcl"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BacktestEngineV1{config: EmptyConfig(), resultsFolder: "results"}
			b.config.StartTime = tt.start
			b.config.EndTime = tt.end

			assert.Equal(t, tt.expected, getResultFolder(b, "SMACrossover", 15, "/data/orcl.csv"))
		})
	}
}
