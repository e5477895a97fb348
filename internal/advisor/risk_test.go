package advisor

import (
	"context"
	"testing"

	"health-journal/internal/journal"
)

func TestParseRiskTagsClampsScores(t *testing.T) {
	tags, err := ParseRiskTags(`[{"disease":"migraine","risk":15},{"disease":"dehydration","risk":-2}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("want 2 tags, got %d", len(tags))
	}
	if tags[0].Risk != 10 {
		t.Fatalf("risk 15 should clamp to 10, got %d", tags[0].Risk)
	}
	if tags[1].Risk != 0 {
		t.Fatalf("negative risk should clamp to 0, got %d", tags[1].Risk)
	}
}

func TestParseRiskTagsDropsJunk(t *testing.T) {
	tags, err := ParseRiskTags(`[{"disease":"migraine","risk":"4"},{"risk":3},"not-an-object",{"disease":"","risk":2}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tags) != 1 || tags[0].Disease != "migraine" || tags[0].Risk != 4 {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}

func TestParseRiskTagsCapsAtFive(t *testing.T) {
	tags, err := ParseRiskTags(`[
		{"disease":"a","risk":1},{"disease":"b","risk":2},{"disease":"c","risk":3},
		{"disease":"d","risk":4},{"disease":"e","risk":5},{"disease":"f","risk":6}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tags) != 5 {
		t.Fatalf("want 5 tags, got %d", len(tags))
	}
}

func TestParseRiskTagsToleratesCodeFence(t *testing.T) {
	tags, err := ParseRiskTags("```json\n[{\"disease\":\"migraine\",\"risk\":6}]\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tags) != 1 || tags[0].Disease != "migraine" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}

func TestParseRiskTagsEmptyBecomesUnclear(t *testing.T) {
	tags, err := ParseRiskTags(`[{"risk":3}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tags) != 1 || tags[0].Disease != "Analysis unavailable or unclear" || tags[0].Risk != 0 {
		t.Fatalf("unexpected fallback: %+v", tags)
	}
}

func TestParseRiskTagsMalformedFails(t *testing.T) {
	if _, err := ParseRiskTags("the patient probably has a migraine"); err == nil {
		t.Fatalf("prose output should be an error")
	}
	if _, err := ParseRiskTags(`{"disease":"migraine"}`); err == nil {
		t.Fatalf("non-array output should be an error")
	}
}

func TestRiskTagsEndToEnd(t *testing.T) {
	fake := &fakeClient{content: `[{"disease":"migraine","risk":15}]`}
	a := New(fake)

	doc := journal.NewDocument()
	doc.AppendSymptom("headache", "head", "2024-01-01T10:00:00Z")

	tags, err := a.RiskTags(context.Background(), doc)
	if err != nil {
		t.Fatalf("risk tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Risk != 10 {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}
