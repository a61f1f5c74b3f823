package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"reputation-service/internal/models"
)

// SentimentInstruction is the system prompt shared by every chat-style
// sentiment backend.
const SentimentInstruction = `You are a sentiment rater for public comments about a Telugu film production house.
Comments are written in Telugu script, romanised Telugu, English, or a mix of them.
Rate the overall polarity the author expresses toward the subject.

Respond ONLY with a JSON object of three probabilities that sum to 1:
{"positive": <0..1>, "neutral": <0..1>, "negative": <0..1>}

Rules:
- Sarcasm counts as the polarity actually meant.
- Threats, insults and curses are negative.
- Emojis alone are judged by their usual meaning.
- Do not explain your answer.`

// TranslateInstruction is the system prompt for translation calls.
const TranslateInstruction = `You translate short social media comments between Telugu and English.
Keep names, hashtags and emojis unchanged. Preserve the tone, including insults and threats.
Respond with the translation only, without quotes or commentary.`

// BuildSentimentPrompt wraps text for a sentiment call.
func BuildSentimentPrompt(text string, track models.Track) string {
	return fmt.Sprintf("Language: %s\nComment:\n%s", languageName(track), text)
}

// BuildTranslatePrompt wraps text for a translation call.
func BuildTranslatePrompt(text string, from, to models.Track) string {
	return fmt.Sprintf("Translate from %s to %s:\n%s", languageName(from), languageName(to), text)
}

func languageName(t models.Track) string {
	if t == models.TrackTelugu {
		return "Telugu"
	}
	return "English"
}

// StripFences removes a markdown code block around a model reply.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseScores decodes a model reply into a distribution and normalises it
// to sum to one.
func ParseScores(raw string) (models.ModelScore, error) {
	var score models.ModelScore
	if err := json.Unmarshal([]byte(StripFences(raw)), &score); err != nil {
		return score, fmt.Errorf("failed to parse sentiment response: %w", err)
	}
	if !score.Valid() {
		return score, fmt.Errorf("invalid sentiment distribution: %+v", score)
	}
	sum := score.Positive + score.Neutral + score.Negative
	score.Positive /= sum
	score.Neutral /= sum
	score.Negative /= sum
	return score, nil
}

// CleanTranslation trims quoting some models add around a translation.
func CleanTranslation(s string) string {
	s = StripFences(s)
	s = strings.Trim(s, "\"“”")
	return strings.TrimSpace(s)
}
