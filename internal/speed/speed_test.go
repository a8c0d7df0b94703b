package speed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWPM(t *testing.T) {
	tests := []struct {
		name           string
		spokenWords    int
		elapsedSeconds float64
		expected       float64
	}{
		{"one minute", 150, 60, 150},
		{"half minute", 50, 20, 150},
		{"rounded to two decimals", 7, 13, 32.31},
		{"zero elapsed time", 40, 0, 0},
		{"negative elapsed time", 40, -5, 0},
		{"zero words", 0, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeWPM(tt.spokenWords, tt.elapsedSeconds))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		wpm      float64
		category string
		riskBand RiskBand
	}{
		{250, "Very Fast", RiskLow},
		{200, "Very Fast", RiskLow},
		{199.99, "Fast", RiskLow},
		{150, "Fast", RiskLow},
		{149.99, "Average", RiskLow},
		{120, "Average", RiskLow},
		{119.99, "Slightly Slow", RiskMedium},
		{90, "Slightly Slow", RiskMedium},
		{89.99, "Slow", RiskHigh},
		{60, "Slow", RiskHigh},
		{59.99, "Very Slow", RiskVeryHigh},
		{0, "Very Slow", RiskVeryHigh},
	}

	for _, tt := range tests {
		cat := Classify(tt.wpm)
		assert.Equal(t, tt.category, cat.Name, "wpm=%v", tt.wpm)
		assert.Equal(t, tt.riskBand, cat.RiskBand, "wpm=%v", tt.wpm)
		assert.NotEmpty(t, cat.Indicator, "wpm=%v", tt.wpm)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0 sec"},
		{42, "42 sec"},
		{59, "59 sec"},
		{59.9, "59 sec"},
		{60, "1m 0s"},
		{65, "1m 5s"},
		{125, "2m 5s"},
		{3605, "60m 5s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.seconds), "seconds=%v", tt.seconds)
	}
}

func TestAnalyze(t *testing.T) {
	m := Analyze(45, 30)

	assert.Equal(t, 30.0, m.ElapsedSeconds)
	assert.Equal(t, "30 sec", m.ElapsedFormatted)
	assert.Equal(t, 45, m.SpokenWords)
	assert.Equal(t, 90.0, m.WPM)
	assert.Equal(t, "Slightly Slow", m.SpeedCategory)
	assert.Equal(t, RiskMedium, m.RiskBand)
}

func TestAnalyze_ZeroElapsed(t *testing.T) {
	m := Analyze(40, 0)

	assert.Equal(t, 0.0, m.WPM)
	assert.Equal(t, "Very Slow", m.SpeedCategory)
	assert.Equal(t, RiskVeryHigh, m.RiskBand)
}
