package generative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// rawNarrative is the JSON shape requested from the model.
type rawNarrative struct {
	Recommendation string             `json:"recommendation"`
	Confidence     *float64           `json:"confidence_score"`
	Reasoning      string             `json:"reasoning"`
	Drivers        []string           `json:"drivers"`
	Risks          []string           `json:"risks"`
	Mitigations    []string           `json:"mitigations"`
	Sentiment      string             `json:"sentiment"`
	Scores         map[string]float64 `json:"scores"`
	RiskLevel      string             `json:"risk_level"`
	Limitations    []string           `json:"limitations"`
}

// ParseNarrative parses and validates a model completion. Structural
// requirements (valid recommendation, confidence in [0,1], non-empty
// reasoning) fail with a retryable invalid_output error; soft fields are
// sanitized to defaults.
func ParseNarrative(text string) (*analysis.NarrativeResult, error) {
	jsonText := extractJSON(text)
	if jsonText == "" {
		return nil, generr.NewError(generr.ErrorTypeInvalidOutput, "completion contained no JSON object")
	}

	var raw rawNarrative
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, generr.NewErrorWithCause(generr.ErrorTypeInvalidOutput, err, "completion was not valid JSON")
	}

	recommendation, err := analysis.ParseRecommendation(raw.Recommendation)
	if err != nil {
		return nil, generr.NewError(generr.ErrorTypeInvalidOutput,
			fmt.Sprintf("recommendation %q is not one of Buy/Hold/Avoid", raw.Recommendation))
	}

	if raw.Confidence == nil {
		return nil, generr.NewError(generr.ErrorTypeInvalidOutput, "confidence_score is missing")
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return nil, generr.NewError(generr.ErrorTypeInvalidOutput,
			fmt.Sprintf("confidence_score %.3f is outside [0, 1]", *raw.Confidence))
	}

	if strings.TrimSpace(raw.Reasoning) == "" {
		return nil, generr.NewError(generr.ErrorTypeInvalidOutput, "reasoning is empty")
	}

	result := &analysis.NarrativeResult{
		Recommendation: recommendation,
		Confidence:     *raw.Confidence,
		Reasoning:      strings.TrimSpace(raw.Reasoning),
		Drivers:        raw.Drivers,
		Risks:          raw.Risks,
		Mitigations:    raw.Mitigations,
		Scores:         raw.Scores,
		Limitations:    raw.Limitations,
	}

	// Soft fields default rather than fail.
	switch strings.ToLower(strings.TrimSpace(raw.Sentiment)) {
	case "bullish":
		result.Sentiment = "Bullish"
	case "bearish":
		result.Sentiment = "Bearish"
	default:
		result.Sentiment = "Neutral"
	}

	return result, nil
}

// extractJSON pulls the first JSON object out of a completion, tolerating
// markdown code fences and surrounding prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.Index(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
