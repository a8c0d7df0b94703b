// Package risk folds speed and accuracy signals into a single weighted,
// thresholded reading-difficulty risk score with human-readable indicators
// and recommendations.
//
// Weights: WPM 40%, accuracy 25%, missing words 15%, wrong words 15%, extra
// words 5%. A pause sub-score is computed and reported but carries no weight
// in the composite; no upstream pause detector exists yet and callers pass 0.
package risk

import "math"

// Reference thresholds for normal reading.
const (
	normalWPM      = 150
	normalAccuracy = 90
)

const (
	wpmWeight          = 40
	accuracyWeight     = 25
	missingWordsWeight = 15
	wrongWordsWeight   = 15
	extraWordsWeight   = 5
)

// Level classifies a composite risk score.
type Level string

const (
	LevelLow      Level = "Low Risk"
	LevelModerate Level = "Moderate Risk"
	LevelHigh     Level = "High Risk"
	LevelNoData   Level = "No Data"
)

// Inputs are the raw per-assessment signals consumed by Score.
type Inputs struct {
	WPM             float64
	AccuracyPercent float64
	MissingWords    int
	WrongWords      int
	ExtraWords      int
	TotalWords      int
	PauseCount      int
}

// ComponentScores holds the six 0-100 sub-scores. Lower is better. Fixed
// shape so serialization and tests can assert exact structure.
type ComponentScores struct {
	WPMScore          float64 `json:"wpm_score"`
	AccuracyScore     float64 `json:"accuracy_score"`
	MissingWordsScore float64 `json:"missing_words_score"`
	WrongWordsScore   float64 `json:"wrong_words_score"`
	ExtraWordsScore   float64 `json:"extra_words_score"`
	PauseScore        float64 `json:"pause_score"`
}

// Assessment is the immutable per-request risk record.
type Assessment struct {
	RiskScore       int              `json:"risk_score"`
	RiskLevel       Level            `json:"risk_level"`
	ComponentScores *ComponentScores `json:"component_scores,omitempty"`
	Indicators      []Indicator      `json:"indicators"`
	Recommendations []string         `json:"recommendations"`
	Summary         string           `json:"summary"`
}

// Score computes the composite risk assessment for one reading. A zero
// TotalWords yields the "No Data" assessment; Score never fails.
func Score(in Inputs) Assessment {
	if in.TotalWords == 0 {
		return emptyAssessment()
	}

	wpmScore := wpmSubScore(in.WPM)
	accuracyScore := accuracySubScore(in.AccuracyPercent)
	missingScore := spanPercentSubScore(in.MissingWords, in.TotalWords)
	wrongScore := spanPercentSubScore(in.WrongWords, in.TotalWords)
	extraScore := extraWordsSubScore(in.ExtraWords)
	pauseScore := pauseSubScore(in.PauseCount)

	// Pause score deliberately absent: the five weights already sum to 100.
	total := wpmScore*wpmWeight/100 +
		accuracyScore*accuracyWeight/100 +
		missingScore*missingWordsWeight/100 +
		wrongScore*wrongWordsWeight/100 +
		extraScore*extraWordsWeight/100

	riskScore := int(math.Round(math.Min(100, math.Max(0, total))))
	level := classifyLevel(riskScore)
	indicators := identifyIndicators(in)

	return Assessment{
		RiskScore: riskScore,
		RiskLevel: level,
		ComponentScores: &ComponentScores{
			WPMScore:          round2(wpmScore),
			AccuracyScore:     round2(accuracyScore),
			MissingWordsScore: round2(missingScore),
			WrongWordsScore:   round2(wrongScore),
			ExtraWordsScore:   round2(extraScore),
			PauseScore:        round2(pauseScore),
		},
		Indicators:      indicators,
		Recommendations: recommendations(level, indicators),
		Summary:         summary(riskScore, level),
	}
}

// wpmSubScore maps reading speed onto a 0-100 risk component.
// 150+ is normal; 100-150 interpolates 0-50; 50-100 interpolates 50-75;
// below 50 is critical.
func wpmSubScore(wpm float64) float64 {
	switch {
	case wpm >= normalWPM:
		return 0
	case wpm >= 100:
		return (normalWPM - wpm) / (normalWPM - 100) * 50
	case wpm >= 50:
		return 50 + (100-wpm)/50*25
	default:
		return 100
	}
}

// accuracySubScore maps accuracy percentage onto a 0-100 risk component.
// 90+ is on target; 80-90 interpolates 0-30; 70-80 interpolates 30-50;
// 60-70 interpolates 50-75; below 60 is critical.
func accuracySubScore(accuracy float64) float64 {
	switch {
	case accuracy >= normalAccuracy:
		return 0
	case accuracy >= 80:
		return (normalAccuracy - accuracy) / 10 * 30
	case accuracy >= 70:
		return 30 + (80-accuracy)/10*20
	case accuracy >= 60:
		return 50 + (70-accuracy)/10*25
	default:
		return 100
	}
}

// spanPercentSubScore maps a word-error count, as a percentage of the
// reference length, onto a 0-100 risk component. Missing and wrong words
// share the same breakpoints: 0-5% -> 0-20, 5-15% -> 20-50, 15-30% -> 50-80,
// above 30% -> 100.
func spanPercentSubScore(count, totalWords int) float64 {
	if totalWords == 0 {
		return 0
	}

	percent := float64(count) / float64(totalWords) * 100
	switch {
	case percent <= 5:
		return percent / 5 * 20
	case percent <= 15:
		return 20 + (percent-5)/10*30
	case percent <= 30:
		return 50 + (percent-15)/15*30
	default:
		return 100
	}
}

// extraWordsSubScore is a step function: extra words barely move the score
// but flag reduced focus.
func extraWordsSubScore(extraWords int) float64 {
	switch {
	case extraWords == 0:
		return 0
	case extraWords <= 3:
		return 5
	case extraWords <= 6:
		return 10
	default:
		return 20
	}
}

// pauseSubScore is a step function over hesitation pauses. Informational
// only; see the package comment.
func pauseSubScore(pauseCount int) float64 {
	switch {
	case pauseCount <= 2:
		return 0
	case pauseCount <= 5:
		return 15
	case pauseCount <= 10:
		return 30
	default:
		return 50
	}
}

func classifyLevel(score int) Level {
	switch {
	case score <= 30:
		return LevelLow
	case score <= 60:
		return LevelModerate
	default:
		return LevelHigh
	}
}

func emptyAssessment() Assessment {
	return Assessment{
		RiskScore:       0,
		RiskLevel:       LevelNoData,
		Indicators:      []Indicator{{Severity: SeverityNone, Message: "Insufficient data for assessment"}},
		Recommendations: []string{"Complete a reading assessment first"},
		Summary:         "Unable to calculate risk score without reading data",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
