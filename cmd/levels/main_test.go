// cmd/levels/main_test.go
package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBars(t *testing.T) {
	input := `{"time":"2024-06-03T00:00:00Z","open":1.1,"high":1.11,"low":1.09,"close":1.105,"volume":10}
{"time":"2024-06-03T01:00:00Z","open":1.105,"high":1.12,"low":1.1,"close":1.11,"volume":12}
`
	bars, err := decodeBars(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[1].Time.Equal(time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1.12, bars[1].High)
}

func TestDecodeBarsReportsPosition(t *testing.T) {
	input := `{"time":"2024-06-03T00:00:00Z","open":1.1,"high":1.11,"low":1.09,"close":1.105,"volume":10}
{"time":"broken"}`
	_, err := decodeBars(strings.NewReader(input))
	assert.ErrorContains(t, err, "бар #2")
}
