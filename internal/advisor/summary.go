package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"health-journal/internal/journal"
)

const summarySystemPrompt = "You are a helpful assistant in a health-monitoring app. " +
	"You summarize the patient's situation for a doctor and for the patient. " +
	"You are NOT a doctor and this is NOT medical advice. " +
	"You must include a brief sentence making it clear that this summary does not replace professional medical care."

// OverallSummary produces the one-paragraph situation summary used at
// the top of the doctor report.
func (a *Advisor) OverallSummary(ctx context.Context, doc *journal.Document) (string, error) {
	payload := struct {
		CurrentProblem *journal.SymptomRecord  `json:"current_problem"`
		Devices        []string                `json:"devices"`
		History        []journal.SymptomRecord `json:"recent_history_most_recent_first"`
		DevicesData    []journal.SensorRecord  `json:"recent_devices_data_most_recent_first"`
		ChatHistory    []journal.ChatRecord    `json:"recent_chat_history_most_recent_first"`
	}{
		CurrentProblem: doc.CurrentProblem,
		Devices:        doc.Devices,
		History:        firstN(doc.History, 5),
		DevicesData:    firstN(doc.DevicesData, 5),
		ChatHistory:    firstN(doc.ChatHistory, 6),
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary payload: %w", err)
	}

	userMessage := "You will receive JSON with the most relevant data about a person's symptoms,\n" +
		"connected devices, recent sensor readings, and their recent chat with an AI assistant.\n\n" +
		"Your task:\n" +
		"- Read the data and write ONE overall summary paragraph (or two short paragraphs) that a doctor could quickly scan.\n" +
		"- Briefly describe: the main complaint, how it evolved over time, any notable sensor patterns, " +
		"and anything important from the conversation.\n" +
		"- Use clear, simple language.\n" +
		"- Include exactly one short sentence that clearly says this is not a diagnosis or medical advice and cannot replace a healthcare professional.\n" +
		"- Aim for about 150-220 words.\n\n" +
		"Respond with plain text only (no JSON, no bullet points, no markdown).\n\n" +
		"Here is the data as JSON:\n" + string(raw)

	return a.generate(ctx, summarySystemPrompt, userMessage)
}
