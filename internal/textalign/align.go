package textalign

import "math"

// AccuracyMetrics summarizes an alignment at the word-count level.
//
// CorrectWords + WrongWords + MissingWords is not guaranteed to equal
// TotalWords: replace spans count max(refLen, spokenLen) wrong words, so an
// uneven replacement inflates the wrong count past the reference tokens it
// covers. Downstream scoring depends on this behavior.
type AccuracyMetrics struct {
	TotalWords      int     `json:"total_words"`
	CorrectWords    int     `json:"correct_words"`
	WrongWords      int     `json:"wrong_words"`
	MissingWords    int     `json:"missing_words"`
	ExtraWords      int     `json:"extra_words"`
	AccuracyPercent float64 `json:"accuracy_percent"`
}

// WordPair is one positional (spoken, correct) pairing from a replace span.
type WordPair struct {
	Spoken  string `json:"spoken"`
	Correct string `json:"correct"`
}

// WordLevelErrors lists the individual words behind the aggregate counts,
// for pronunciation-assistance generation.
//
// Replace spans pair spoken and reference words positionally up to the
// shorter side, so only min(refLen, spokenLen) pairs are listed even though
// max(refLen, spokenLen) words are counted wrong.
type WordLevelErrors struct {
	WrongWords   []WordPair `json:"wrong_words"`
	MissingWords []string   `json:"missing_words"`
	ExtraWords   []string   `json:"extra_words"`
}

// HasErrors reports whether any wrong or missing words were recorded.
func (e WordLevelErrors) HasErrors() bool {
	return len(e.WrongWords) > 0 || len(e.MissingWords) > 0
}

// Align aligns a reference token sequence against a recognized one and
// classifies every difference. Degenerate inputs (either side empty) are
// valid and produce the expected boundary counts; Align never fails.
func Align(ref, spoken []string) ([]Span, AccuracyMetrics, WordLevelErrors) {
	spans := matchSpans(ref, spoken)

	metrics := AccuracyMetrics{TotalWords: len(ref)}
	errs := WordLevelErrors{
		WrongWords:   []WordPair{},
		MissingWords: []string{},
		ExtraWords:   []string{},
	}

	for _, s := range spans {
		refLen := s.RefEnd - s.RefStart
		spokenLen := s.SpokenEnd - s.SpokenStart

		switch s.Tag {
		case OpEqual:
			metrics.CorrectWords += refLen
		case OpReplace:
			metrics.WrongWords += maxInt(refLen, spokenLen)
			for k := 0; k < minInt(refLen, spokenLen); k++ {
				errs.WrongWords = append(errs.WrongWords, WordPair{
					Spoken:  spoken[s.SpokenStart+k],
					Correct: ref[s.RefStart+k],
				})
			}
		case OpDelete:
			metrics.MissingWords += refLen
			errs.MissingWords = append(errs.MissingWords, ref[s.RefStart:s.RefEnd]...)
		case OpInsert:
			metrics.ExtraWords += spokenLen
			errs.ExtraWords = append(errs.ExtraWords, spoken[s.SpokenStart:s.SpokenEnd]...)
		}
	}

	if metrics.TotalWords > 0 {
		metrics.AccuracyPercent = Round2(float64(metrics.CorrectWords) / float64(metrics.TotalWords) * 100)
	}

	return spans, metrics, errs
}

// CompareText normalizes both texts and aligns them in one step.
func CompareText(referenceText, recognizedText string) ([]Span, AccuracyMetrics, WordLevelErrors) {
	return Align(Normalize(referenceText), Normalize(recognizedText))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
