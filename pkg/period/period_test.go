package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringToMinutes(t *testing.T) {
	cases := map[string]int{
		"1m":  Minutes1,
		"15m": Minutes15,
		"1H":  Minutes60,
		" 4h": Minutes240,
		"1d":  Minutes1440,
		"1w":  Minutes10080,
		"45m": 45,
		"2h":  120,
		"3d":  3 * 1440,
	}
	for in, want := range cases {
		got, err := StringToMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := StringToMinutes("tick")
	assert.Error(t, err)
	_, err = StringToMinutes("0m")
	assert.Error(t, err)
}

func TestPeriodToDuration(t *testing.T) {
	assert.Equal(t, 4*time.Hour, PeriodToDuration(Period4h))
	assert.Equal(t, DefaultDuration, PeriodToDuration("bogus"))

	_, err := StringToDuration("bogus")
	assert.Error(t, err)
}

func TestMinutesToStringRoundTrip(t *testing.T) {
	for _, p := range AllPeriods {
		m, err := StringToMinutes(p)
		require.NoError(t, err)
		assert.Equal(t, p, MinutesToString(m))
	}
	assert.Equal(t, "45m", MinutesToString(45))
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"15m", "1h", "4h"}, ParseList("15m, 1H,bogus,,4h"))
	assert.Empty(t, ParseList(""))
}
