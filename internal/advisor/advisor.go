// Package advisor builds the prompts for the three generation tasks:
// per-complaint advice, chat replies, and the overall doctor summary,
// plus risk tagging. Every method degrades to an error the route layer
// maps to a labeled fallback; generation never blocks a request.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"health-journal/internal/journal"
	"health-journal/internal/llm"
)

type Advisor struct {
	client llm.Client
}

func New(client llm.Client) *Advisor {
	return &Advisor{client: client}
}

// ChatTurn is the chat message shape exchanged with clients. BodyPart
// tags the user turn that opened the conversation, when known.
type ChatTurn struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	BodyPart  string `json:"bodyPart,omitempty"`
}

const adviceSystemPrompt = "You are a helpful assistant in a health-monitoring app. " +
	"The data can be incomplete, noisy, or low quality. " +
	"Regardless of data quality, you must always provide some brief, " +
	"practical, common-sense advice. " +
	"You are NOT a doctor and this is NOT medical advice."

const chatSystemPrompt = "You are a helpful assistant in a health-monitoring app. " +
	"You chat with the user about their symptoms. " +
	"Always give simple, practical advice. " +
	"You are NOT a doctor. This is NOT medical advice."

// Advice asks the model for a short reaction to a freshly submitted
// complaint, given the recent history and the last sensor window.
func (a *Advisor) Advice(ctx context.Context, history []journal.SymptomRecord, complaint journal.SymptomRecord, recentSensors []journal.SensorRecord) (string, error) {
	payload := struct {
		History       []journal.SymptomRecord `json:"full_history_most_recent_5"`
		Complaint     journal.SymptomRecord   `json:"current_complaint"`
		RecentSensors []journal.SensorRecord  `json:"recent_sensor_data_last_12h"`
	}{
		History:       firstN(history, 5),
		Complaint:     complaint,
		RecentSensors: recentSensors,
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode advice payload: %w", err)
	}

	userMessage := "You are being used in a health-monitoring app.\n\n" +
		"Here is the context as JSON. Use it to infer what might be going on and give a short, " +
		"simple explanation plus a few general tips.\n\n" +
		"```json\n" + string(raw) + "\n```\n\n" +
		"Constraints:\n" +
		"- Always respond, even if data looks bad, weird, or incomplete.\n" +
		"- Make it clear in a brief way that your answer is not a diagnosis or professional medical advice.\n" +
		"- Keep your answer to 1-2 short paragraphs (around 120-180 words)."

	return a.generate(ctx, adviceSystemPrompt, userMessage)
}

// ChatReply continues the current episode's conversation.
func (a *Advisor) ChatReply(ctx context.Context, turns []ChatTurn, latest ChatTurn) (string, error) {
	payload := struct {
		ChatHistory []ChatTurn `json:"chat_history"`
		Latest      string     `json:"latest_user_message"`
		BodyPart    string     `json:"bodyPart"`
	}{
		ChatHistory: turns,
		Latest:      latest.Message,
		BodyPart:    latest.BodyPart,
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode chat payload: %w", err)
	}

	userMessage := "Continue the conversation based on this JSON:\n\n" +
		string(raw) + "\n\n" +
		"Your task:\n" +
		"- Respond to the latest user message.\n" +
		"- Keep tone warm and simple.\n" +
		"- Give brief, practical tips.\n" +
		"- Clearly say this is NOT medical advice.\n" +
		"- Reply only with raw assistant text."

	return a.generate(ctx, chatSystemPrompt, userMessage)
}

func (a *Advisor) generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := a.client.Generate(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
