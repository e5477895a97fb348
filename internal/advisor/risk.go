package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"health-journal/internal/journal"
)

// RiskTag is one rough condition label with a 0..10 concern score.
type RiskTag struct {
	Disease string `json:"disease"`
	Risk    int    `json:"risk"`
}

// maxRiskTags caps how many tags a response may carry.
const maxRiskTags = 5

const riskSystemPrompt = "You are an assistant in a health-monitoring app. " +
	"You are NOT a doctor and this is NOT medical advice or diagnosis. " +
	"Your job is only to generate rough, high-level risk tags for possible conditions, " +
	"based on symptoms, sensors, and chat history. " +
	"Your output will be displayed with a clear warning that it is not medical advice."

// RiskTags asks the model for up to five condition tags and sanitizes
// the output: non-objects and empty diseases are dropped, risk is
// clamped to [0,10], and an empty result degrades to a single
// "unclear" tag. Model or decode failures surface as errors; the route
// layer substitutes its own fallback list.
func (a *Advisor) RiskTags(ctx context.Context, doc *journal.Document) ([]RiskTag, error) {
	payload := struct {
		CurrentProblem *journal.SymptomRecord  `json:"current_problem"`
		Devices        []string                `json:"devices"`
		History        []journal.SymptomRecord `json:"history_most_recent_first"`
		DevicesData    []journal.SensorRecord  `json:"devices_data_most_recent_first"`
		ChatHistory    []journal.ChatRecord    `json:"chat_history_most_recent_first"`
	}{
		CurrentProblem: doc.ResolveCurrentProblem(),
		Devices:        doc.Devices,
		History:        firstN(doc.History, 8),
		DevicesData:    firstN(doc.DevicesData, 40),
		ChatHistory:    firstN(doc.ChatHistory, 10),
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode risk payload: %w", err)
	}

	userMessage := "You will receive JSON with symptom history, current problem, connected devices, " +
		"sensor data, and chat history from a health-monitoring app.\n\n" +
		"Your task:\n" +
		"- Infer up to 5 POSSIBLE conditions or problem categories (these are NOT diagnoses).\n" +
		"- For each, assign an integer risk score from 0 to 10 (0 = no apparent risk, 10 = very concerning). " +
		"Use 0-3 for low risk, 4-6 for moderate, 7-10 for high concern.\n" +
		"- Focus on broad, human-readable labels like 'migraine', 'anxiety-related symptoms', " +
		"'mild dehydration', 'cardiovascular issue', etc. Avoid very rare or hyper-specific diseases.\n" +
		"- If data is very unclear, include one item like 'Unclear cause' with a low risk (1-3).\n\n" +
		"FORMAT REQUIREMENTS (VERY IMPORTANT):\n" +
		"- Respond with ONLY a JSON array.\n" +
		"- Length must be between 1 and 5.\n" +
		"- Each element must be an object with EXACTLY these keys: \"disease\" (string) and \"risk\" (integer 0-10).\n" +
		"- Do NOT include any extra keys, comments, text, or explanations outside the JSON.\n\n" +
		"Here is the data as JSON:\n" + string(raw)

	content, err := a.generate(ctx, riskSystemPrompt, userMessage)
	if err != nil {
		return nil, err
	}
	return ParseRiskTags(content)
}

// ParseRiskTags decodes and sanitizes a model risk response. Code fences
// around the array are tolerated.
func ParseRiskTags(content string) ([]RiskTag, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &items); err != nil {
		return nil, fmt.Errorf("risk output is not a JSON array: %w", err)
	}

	cleaned := make([]RiskTag, 0, len(items))
	for _, item := range items {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		disease := stringValue(obj["disease"])
		if disease == "" {
			continue
		}
		cleaned = append(cleaned, RiskTag{Disease: disease, Risk: ClampRisk(intValue(obj["risk"]))})
	}
	if len(cleaned) == 0 {
		cleaned = []RiskTag{{Disease: "Analysis unavailable or unclear", Risk: 0}}
	}
	if len(cleaned) > maxRiskTags {
		cleaned = cleaned[:maxRiskTags]
	}
	return cleaned, nil
}

// ClampRisk bounds a risk score to [0,10].
func ClampRisk(risk int) int {
	if risk < 0 {
		return 0
	}
	if risk > 10 {
		return 10
	}
	return risk
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}
