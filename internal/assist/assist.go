package assist

import (
	"context"
	"fmt"

	"readscore/internal/textalign"
	"readscore/internal/tts"
	"readscore/pkg/cache"
	"readscore/pkg/logger"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"
)

// WordCorrection explains one misread word to the learner.
type WordCorrection struct {
	Spoken        string  `json:"spoken"`
	Correct       string  `json:"correct"`
	Similarity    float64 `json:"similarity"`
	PhoneticMatch bool    `json:"phonetic_match"`
	Tip           string  `json:"tip"`
}

// Help bundles per-word corrections with a short practice plan.
type Help struct {
	Corrections  []WordCorrection `json:"corrections"`
	MissingWords []string         `json:"missing_words"`
	PracticePlan []string         `json:"practice_plan"`
}

// Similarity scores spoken against correct with Jaro-Winkler, rounded to
// two decimals.
func Similarity(spoken, correct string) float64 {
	return textalign.Round2(matchr.JaroWinkler(spoken, correct, false))
}

// SoundsAlike reports whether two words share a Double Metaphone code, so
// "there"/"their" style confusions are flagged as pronunciation-level.
func SoundsAlike(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	if ap != "" && (ap == bp || ap == bs) {
		return true
	}
	return as != "" && (as == bp || as == bs)
}

func correctionTip(c WordCorrection) string {
	switch {
	case c.PhoneticMatch:
		return fmt.Sprintf("'%s' sounds like '%s' but is spelled differently. Look at the letters carefully.", c.Spoken, c.Correct)
	case c.Similarity >= 0.85:
		return fmt.Sprintf("Very close! Compare '%s' and '%s' letter by letter.", c.Spoken, c.Correct)
	case c.Similarity >= 0.6:
		return fmt.Sprintf("Sound out '%s' slowly, one syllable at a time.", c.Correct)
	default:
		return fmt.Sprintf("Point at '%s' and read it on its own before rereading the sentence.", c.Correct)
	}
}

// Build turns word-level errors into learner-facing help.
func Build(errs textalign.WordLevelErrors) Help {
	help := Help{
		Corrections:  []WordCorrection{},
		MissingWords: errs.MissingWords,
		PracticePlan: []string{},
	}
	if help.MissingWords == nil {
		help.MissingWords = []string{}
	}

	for _, pair := range errs.WrongWords {
		c := WordCorrection{
			Spoken:        pair.Spoken,
			Correct:       pair.Correct,
			Similarity:    Similarity(pair.Spoken, pair.Correct),
			PhoneticMatch: SoundsAlike(pair.Spoken, pair.Correct),
		}
		c.Tip = correctionTip(c)
		help.Corrections = append(help.Corrections, c)
	}

	if len(help.Corrections) > 0 {
		help.PracticePlan = append(help.PracticePlan,
			"Reread each corrected word aloud three times")
	}
	for _, c := range help.Corrections {
		if c.PhoneticMatch {
			help.PracticePlan = append(help.PracticePlan,
				"Practice telling apart words that sound alike")
			break
		}
	}
	if len(help.MissingWords) > 0 {
		help.PracticePlan = append(help.PracticePlan,
			"Follow the text with your finger so no word is skipped")
	}
	if len(help.PracticePlan) == 0 {
		help.PracticePlan = append(help.PracticePlan,
			"Great reading! Try a slightly harder passage next time")
	}

	return help
}

// Assistant serves pronunciation audio for corrections, caching synthesized
// words so repeated drills do not hit the synthesis API.
type Assistant struct {
	synth tts.Synthesizer
	cache cache.Cache
}

func NewAssistant(synth tts.Synthesizer, c cache.Cache) *Assistant {
	return &Assistant{synth: synth, cache: c}
}

// WordAudio returns spoken audio for a single word. When no synthesizer is
// configured the help payload degrades to text-only.
func (a *Assistant) WordAudio(ctx context.Context, word string) ([]byte, error) {
	if a.synth == nil {
		return nil, fmt.Errorf("speech synthesis is not configured")
	}

	key := cache.WordAudioCacheKey(word)
	if a.cache != nil {
		var cached []byte
		if err := a.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	audio, err := a.synth.Synthesize(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize word: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, audio); err != nil {
			logger.Warn("Failed to cache word audio", zap.String("word", word), zap.Error(err))
		}
	}

	return audio, nil
}

// CorrectionAudio speaks a full correction so the learner hears both what
// they said and the right word.
func (a *Assistant) CorrectionAudio(ctx context.Context, spoken, correct string) ([]byte, error) {
	if a.synth == nil {
		return nil, fmt.Errorf("speech synthesis is not configured")
	}

	phrase := fmt.Sprintf("You said %s. The correct word is %s. %s.", spoken, correct, correct)
	audio, err := a.synth.Synthesize(ctx, phrase)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize correction: %w", err)
	}
	return audio, nil
}
