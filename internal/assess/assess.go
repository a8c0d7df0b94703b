// Package assess composes the normalization, alignment, speed, and risk
// components into a single reading-assessment result. The pipeline is pure:
// one call, immutable inputs, a freshly built result, no shared state, so
// concurrent assessments need no coordination.
package assess

import (
	"readscore/internal/risk"
	"readscore/internal/speed"
	"readscore/internal/textalign"
)

// Request carries everything the pipeline needs for one assessment.
// RecognizedText comes from an external transcription engine or directly
// from the caller for text-only runs. Age is carried through for the caller
// but not consumed by any scoring component.
type Request struct {
	ReferenceText  string
	RecognizedText string
	ElapsedSeconds float64
	PauseCount     int
	Age            int
}

// Result is the full assessment payload the transport layer serializes.
type Result struct {
	ReferenceText        string                    `json:"reference_text"`
	RecognizedText       string                    `json:"recognized_text"`
	Age                  int                       `json:"age"`
	SpeedMetrics         speed.Metrics             `json:"speed_metrics"`
	AccuracyMetrics      textalign.AccuracyMetrics `json:"accuracy_metrics"`
	WordLevelErrors      textalign.WordLevelErrors `json:"word_level_errors"`
	AccuracyFeedback     string                    `json:"accuracy_feedback"`
	DifficultyAssessment string                    `json:"difficulty_assessment"`
	RiskAssessment       risk.Assessment           `json:"risk_assessment"`
}

// Run executes the full pipeline. It never fails: empty or malformed text is
// valid input and produces the documented boundary values.
func Run(req Request) Result {
	refTokens := textalign.Normalize(req.ReferenceText)
	spokenTokens := textalign.Normalize(req.RecognizedText)

	_, accuracy, wordErrors := textalign.Align(refTokens, spokenTokens)

	speedMetrics := speed.Analyze(len(spokenTokens), req.ElapsedSeconds)

	riskAssessment := risk.Score(risk.Inputs{
		WPM:             speedMetrics.WPM,
		AccuracyPercent: accuracy.AccuracyPercent,
		MissingWords:    accuracy.MissingWords,
		WrongWords:      accuracy.WrongWords,
		ExtraWords:      accuracy.ExtraWords,
		TotalWords:      accuracy.TotalWords,
		PauseCount:      req.PauseCount,
	})

	return Result{
		ReferenceText:        req.ReferenceText,
		RecognizedText:       req.RecognizedText,
		Age:                  req.Age,
		SpeedMetrics:         speedMetrics,
		AccuracyMetrics:      accuracy,
		WordLevelErrors:      wordErrors,
		AccuracyFeedback:     AccuracyFeedback(accuracy.AccuracyPercent),
		DifficultyAssessment: DifficultyAssessment(speedMetrics.WPM, accuracy.AccuracyPercent),
		RiskAssessment:       riskAssessment,
	}
}

// AccuracyFeedback maps an accuracy percentage onto a fixed encouragement
// band.
func AccuracyFeedback(accuracyPercent float64) string {
	switch {
	case accuracyPercent >= 90:
		return "Excellent reading! Keep it up!"
	case accuracyPercent >= 80:
		return "Good job! Just a few words to work on."
	case accuracyPercent >= 70:
		return "Nice effort! Practice a bit more."
	case accuracyPercent >= 60:
		return "Keep practicing! You're making progress."
	default:
		return "Let's practice this passage again!"
	}
}

// DifficultyAssessment estimates whether the passage difficulty suits the
// reader, from the accuracy x speed matrix.
func DifficultyAssessment(wpm, accuracyPercent float64) string {
	switch {
	case accuracyPercent >= 90:
		if wpm >= 120 {
			return "Excellent reader - Challenge with harder passages"
		}
		return "Accurate but slow - May need confidence building"
	case accuracyPercent >= 80:
		if wpm >= 120 {
			return "Good progress - Current level is appropriate"
		}
		return "Keep practicing at current level"
	case accuracyPercent >= 70:
		if wpm >= 100 {
			return "Struggling - Try easier material for success"
		}
		return "Too difficult - Use simpler passages"
	default:
		return "Too challenging - Start with beginner passages"
	}
}
