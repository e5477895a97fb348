package advisor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"health-journal/internal/journal"
	"health-journal/internal/llm"
)

type fakeClient struct {
	content string
	err     error
	last    []llm.Message
}

func (f *fakeClient) Generate(_ context.Context, messages []llm.Message) (llm.Response, error) {
	f.last = messages
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.content}, nil
}

func TestAdvicePromptCarriesContext(t *testing.T) {
	fake := &fakeClient{content: "  drink water  "}
	a := New(fake)

	history := make([]journal.SymptomRecord, 0, 7)
	for i := 0; i < 7; i++ {
		history = append(history, journal.SymptomRecord{
			Message:   fmt.Sprintf("symptom-%d", i),
			BodyPart:  "head",
			Timestamp: fmt.Sprintf("2024-01-0%dT10:00:00Z", i+1),
		})
	}
	complaint := journal.SymptomRecord{Message: "dizzy", BodyPart: "head", Timestamp: "2024-01-08T10:00:00Z"}
	sensors := []journal.SensorRecord{{"timestamp": "2024-01-08T09:00:00Z", "pulse": 80}}

	got, err := a.Advice(context.Background(), history, complaint, sensors)
	if err != nil {
		t.Fatalf("advice: %v", err)
	}
	if got != "drink water" {
		t.Fatalf("response not trimmed: %q", got)
	}

	if len(fake.last) != 2 || fake.last[0].Role != "system" || fake.last[1].Role != "user" {
		t.Fatalf("unexpected message shape: %+v", fake.last)
	}
	user := fake.last[1].Content
	if !strings.Contains(user, `"dizzy"`) {
		t.Fatalf("complaint missing from prompt")
	}
	if !strings.Contains(user, "symptom-4") || strings.Contains(user, "symptom-5") {
		t.Fatalf("history should be trimmed to 5 records")
	}
	if !strings.Contains(user, "recent_sensor_data_last_12h") {
		t.Fatalf("sensor window missing from payload")
	}
}

func TestChatReplyPrompt(t *testing.T) {
	fake := &fakeClient{content: "take a break"}
	a := New(fake)

	turns := []ChatTurn{
		{Role: "user", Message: "my head hurts", Timestamp: "2024-01-01T10:00:00Z", BodyPart: "head"},
		{Role: "assistant", Message: "since when?", Timestamp: "2024-01-01T10:01:00Z"},
		{Role: "user", Message: "since this morning", Timestamp: "2024-01-01T10:02:00Z", BodyPart: "head"},
	}
	got, err := a.ChatReply(context.Background(), turns, turns[2])
	if err != nil {
		t.Fatalf("chat reply: %v", err)
	}
	if got != "take a break" {
		t.Fatalf("unexpected reply: %q", got)
	}
	user := fake.last[1].Content
	if !strings.Contains(user, `"latest_user_message": "since this morning"`) {
		t.Fatalf("latest user message missing: %s", user)
	}
	if !strings.Contains(user, `"chat_history"`) {
		t.Fatalf("chat history missing from payload")
	}
}

func TestOverallSummaryPrompt(t *testing.T) {
	fake := &fakeClient{content: "summary text"}
	a := New(fake)

	doc := journal.NewDocument()
	doc.AppendSymptom("dizzy", "head", "2024-01-02T10:00:00Z")
	got, err := a.OverallSummary(context.Background(), doc)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got != "summary text" {
		t.Fatalf("unexpected summary: %q", got)
	}
	user := fake.last[1].Content
	for _, key := range []string{"current_problem", "recent_history_most_recent_first", "recent_chat_history_most_recent_first"} {
		if !strings.Contains(user, key) {
			t.Fatalf("payload key %q missing", key)
		}
	}
}

func TestGenerateErrorPropagates(t *testing.T) {
	fake := &fakeClient{err: fmt.Errorf("api down")}
	a := New(fake)
	if _, err := a.Advice(context.Background(), nil, journal.SymptomRecord{}, nil); err == nil {
		t.Fatalf("expected error from failing client")
	}
}
