package risk

import (
	"fmt"
	"strings"
)

// Severity tiers an indicator by how concerning the underlying signal is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityNone     Severity = "none"
)

// Indicator is one human-readable concern raised by the assessment.
type Indicator struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// identifyIndicators runs independent threshold checks against the raw
// inputs (not the sub-scores). When nothing fires, a single "no concerns"
// marker is emitted instead.
func identifyIndicators(in Inputs) []Indicator {
	var indicators []Indicator

	switch {
	case in.WPM < 50:
		indicators = append(indicators, Indicator{SeverityCritical, "CRITICAL: Extremely slow reading (< 50 WPM)"})
	case in.WPM < 100:
		indicators = append(indicators, Indicator{SeverityWarning, "Very slow reading speed (< 100 WPM)"})
	case in.WPM < 150:
		indicators = append(indicators, Indicator{SeverityWarning, "Slow reading speed (< 150 WPM)"})
	}

	switch {
	case in.AccuracyPercent < 60:
		indicators = append(indicators, Indicator{SeverityCritical, "CRITICAL: Very low accuracy (< 60%)"})
	case in.AccuracyPercent < 70:
		indicators = append(indicators, Indicator{SeverityWarning, "Low accuracy (60-70%)"})
	case in.AccuracyPercent < 80:
		indicators = append(indicators, Indicator{SeverityWarning, "Below target accuracy (70-80%)"})
	}

	var missingPercent float64
	if in.TotalWords > 0 {
		missingPercent = float64(in.MissingWords) / float64(in.TotalWords) * 100
	}
	switch {
	case missingPercent > 30:
		indicators = append(indicators, Indicator{SeverityCritical, "CRITICAL: Many skipped words (> 30%)"})
	case missingPercent > 15:
		indicators = append(indicators, Indicator{SeverityWarning, "Significant word skipping (15-30%)"})
	case missingPercent > 5:
		indicators = append(indicators, Indicator{SeverityWarning, "Some words skipped (5-15%)"})
	}

	var wrongPercent float64
	if in.TotalWords > 0 {
		wrongPercent = float64(in.WrongWords) / float64(in.TotalWords) * 100
	}
	switch {
	case wrongPercent > 30:
		indicators = append(indicators, Indicator{SeverityCritical, "CRITICAL: Many pronunciation errors (> 30%)"})
	case wrongPercent > 15:
		indicators = append(indicators, Indicator{SeverityWarning, "Significant pronunciation issues (15-30%)"})
	case wrongPercent > 5:
		indicators = append(indicators, Indicator{SeverityWarning, "Some pronunciation errors (5-15%)"})
	}

	switch {
	case in.PauseCount > 10:
		indicators = append(indicators, Indicator{SeverityWarning, "Many pauses detected (> 10 pauses)"})
	case in.PauseCount > 5:
		indicators = append(indicators, Indicator{SeverityWarning, "Frequent hesitation (6-10 pauses)"})
	}

	if in.ExtraWords > 6 {
		indicators = append(indicators, Indicator{SeverityWarning, "Many extra words (possible reduced focus)"})
	}

	if len(indicators) == 0 {
		return []Indicator{{Severity: SeverityNone, Message: "No significant concerns detected"}}
	}
	return indicators
}

// recommendations builds the base list for the risk level, then extends it
// with targeted items triggered by substring matches against the indicator
// text. The match is on "skipped", so the 15-30% tier ("word skipping")
// does not trigger the tracking recommendation.
func recommendations(level Level, indicators []Indicator) []string {
	var recs []string

	switch level {
	case LevelLow:
		recs = append(recs,
			"Continue current reading practice",
			"Challenge with more complex texts",
			"Maintain consistent reading habits",
		)
	case LevelModerate:
		recs = append(recs,
			"Practice with age-appropriate passages",
			"Focus on accuracy over speed",
			"Use multi-sensory reading techniques",
			"Practice phonetic decoding exercises",
		)
	default:
		recs = append(recs,
			"Consider professional dyslexia assessment",
			"Work with a reading specialist",
			"Use specialized reading intervention programs",
			"Try audiobook pairing with text reading",
			"Practice with shorter, easier passages first",
			"Use visual aids and color overlays",
		)
	}

	if anyIndicatorContains(indicators, "slow reading") {
		recs = append(recs, "Practice fluency drills and timed reading exercises")
	}
	if anyIndicatorContains(indicators, "pronunciation") {
		recs = append(recs, "Focus on phonetic awareness training")
	}
	if anyIndicatorContains(indicators, "skipped") {
		recs = append(recs, "Use finger tracking or pointer while reading")
	}

	return recs
}

func anyIndicatorContains(indicators []Indicator, substr string) bool {
	for _, ind := range indicators {
		if strings.Contains(strings.ToLower(ind.Message), substr) {
			return true
		}
	}
	return false
}

// summary renders the two-line score/level narrative.
func summary(score int, level Level) string {
	var narrative string
	switch {
	case score <= 30:
		narrative = "Reading performance is within normal range with no significant concerns."
	case score <= 60:
		narrative = "Some areas of reading need improvement. Regular practice and targeted interventions are recommended."
	default:
		narrative = "Significant reading difficulties detected. Professional evaluation and specialized intervention may be beneficial."
	}
	return fmt.Sprintf("Score: %d/100 - %s\n%s", score, level, narrative)
}
