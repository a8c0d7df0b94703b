// Package speed converts elapsed reading time and spoken word counts into a
// words-per-minute figure and a coarse speed classification.
package speed

import (
	"fmt"
	"math"
)

// RiskBand is the coarse risk label attached to a speed category.
type RiskBand string

const (
	RiskLow      RiskBand = "Low"
	RiskMedium   RiskBand = "Medium"
	RiskHigh     RiskBand = "High"
	RiskVeryHigh RiskBand = "Very High"
)

// Category describes one of the six fixed WPM bands.
type Category struct {
	Name      string   `json:"category"`
	Indicator string   `json:"indicator"`
	RiskBand  RiskBand `json:"risk_band"`
}

// Metrics is the per-assessment speed record.
type Metrics struct {
	ElapsedSeconds   float64  `json:"elapsed_time_seconds"`
	ElapsedFormatted string   `json:"elapsed_time_formatted"`
	SpokenWords      int      `json:"spoken_words"`
	WPM              float64  `json:"wpm"`
	SpeedCategory    string   `json:"speed_category"`
	SpeedIndicator   string   `json:"speed_indicator"`
	RiskBand         RiskBand `json:"risk_band"`
}

// ComputeWPM returns spokenWords per elapsed minute, rounded to two decimals.
// Zero or negative elapsed time yields 0; there is no division by zero.
func ComputeWPM(spokenWords int, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return round2(float64(spokenWords) / (elapsedSeconds / 60))
}

// Classify maps a WPM value onto one of six fixed bands, each inclusive at
// its lower bound.
func Classify(wpm float64) Category {
	switch {
	case wpm >= 200:
		return Category{Name: "Very Fast", Indicator: "Very fast reading - may indicate skimming", RiskBand: RiskLow}
	case wpm >= 150:
		return Category{Name: "Fast", Indicator: "Good reading speed", RiskBand: RiskLow}
	case wpm >= 120:
		return Category{Name: "Average", Indicator: "Normal reading speed", RiskBand: RiskLow}
	case wpm >= 90:
		return Category{Name: "Slightly Slow", Indicator: "Slightly below average - may need focus areas", RiskBand: RiskMedium}
	case wpm >= 60:
		return Category{Name: "Slow", Indicator: "Slow reading speed - common dyslexia indicator", RiskBand: RiskHigh}
	default:
		return Category{Name: "Very Slow", Indicator: "Very slow reading - strong dyslexia indicator", RiskBand: RiskVeryHigh}
	}
}

// FormatDuration renders elapsed seconds as "N sec" under one minute, else
// "Xm Ys" with truncating division.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	minutes := total / 60
	secs := total % 60
	if minutes == 0 {
		return fmt.Sprintf("%d sec", secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}

// Analyze produces the full speed record for one assessment.
func Analyze(spokenWords int, elapsedSeconds float64) Metrics {
	wpm := ComputeWPM(spokenWords, elapsedSeconds)
	cat := Classify(wpm)
	return Metrics{
		ElapsedSeconds:   round2(elapsedSeconds),
		ElapsedFormatted: FormatDuration(elapsedSeconds),
		SpokenWords:      spokenWords,
		WPM:              wpm,
		SpeedCategory:    cat.Name,
		SpeedIndicator:   cat.Indicator,
		RiskBand:         cat.RiskBand,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
