// Package journal holds the persisted health-journal document: symptom
// history, sensor readings, per-episode chat, and the current problem
// snapshot. All three timestamped collections are presented newest-first,
// and malformed timestamps degrade to the minimum instant instead of
// failing a request.
package journal

import (
	"sort"
	"time"
)

// DefaultSensorWindowHours is the lookback used when callers do not
// specify a window for recent sensor readings.
const DefaultSensorWindowHours = 12

// SymptomRecord is one submitted complaint. Records are immutable after
// creation except for the one-time advice backfill.
type SymptomRecord struct {
	Message   string `json:"message"`
	BodyPart  string `json:"bodyPart"`
	Timestamp string `json:"timestamp"`
	Advice    string `json:"advice,omitempty"`
}

// ChatRecord is a single chat turn within the current episode.
type ChatRecord struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SensorRecord is an opaque device reading. The store only cares about
// the "timestamp" key; everything else passes through untouched.
type SensorRecord map[string]any

// Timestamp returns the record's timestamp field, or "" when it is
// missing or not a string.
func (r SensorRecord) Timestamp() string {
	if v, ok := r["timestamp"].(string); ok {
		return v
	}
	return ""
}

// Document is the entire persisted state, one per deployment.
type Document struct {
	Devices        []string        `json:"devices"`
	History        []SymptomRecord `json:"history"`
	DevicesData    []SensorRecord  `json:"devices_data"`
	ChatHistory    []ChatRecord    `json:"chat_history"`
	CurrentProblem *SymptomRecord  `json:"current_problem"`
}

// NewDocument returns an empty document with all collections present.
func NewDocument() *Document {
	return &Document{
		Devices:     []string{},
		History:     []SymptomRecord{},
		DevicesData: []SensorRecord{},
		ChatHistory: []ChatRecord{},
	}
}

// NowTimestamp returns the current UTC time in the stored wire form.
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ParseTimestamp parses a stored ISO-8601 timestamp, with or without a
// trailing "Z" or fractional seconds. The zero time plus false is the
// sentinel minimum instant for anything missing or unparsable.
func ParseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a stored timestamp as "YYYY-MM-DD HH:MM" for
// display. Unparsable input passes through verbatim; empty input becomes
// "Unknown time".
func FormatTimestamp(ts string) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		if ts == "" {
			return "Unknown time"
		}
		return ts
	}
	return t.Format("2006-01-02 15:04")
}

// sortNewestFirst orders all three timestamped collections descending by
// parsed timestamp. The sorts are stable, so records with equal or
// unparsable timestamps keep their insertion order.
func (d *Document) sortNewestFirst() {
	sortByTimestamp(d.History, func(r SymptomRecord) string { return r.Timestamp })
	sortByTimestamp(d.DevicesData, func(r SensorRecord) string { return r.Timestamp() })
	sortByTimestamp(d.ChatHistory, func(r ChatRecord) string { return r.Timestamp })
}

func sortByTimestamp[T any](records []T, ts func(T) string) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, _ := ParseTimestamp(ts(records[i]))
		tj, _ := ParseTimestamp(ts(records[j]))
		return ti.After(tj)
	})
}

// normalize makes sure every top-level collection exists, so documents
// written by older revisions load without errors.
func (d *Document) normalize() {
	if d.Devices == nil {
		d.Devices = []string{}
	}
	if d.History == nil {
		d.History = []SymptomRecord{}
	}
	if d.DevicesData == nil {
		d.DevicesData = []SensorRecord{}
	}
	if d.ChatHistory == nil {
		d.ChatHistory = []ChatRecord{}
	}
}

// backfillTimestamps assigns "now" to any history record missing a
// timestamp and reports whether anything changed, so the caller can
// persist the backfill once.
func (d *Document) backfillTimestamps() bool {
	updated := false
	for i := range d.History {
		if d.History[i].Timestamp == "" {
			d.History[i].Timestamp = NowTimestamp()
			updated = true
		}
	}
	return updated
}

// AppendSymptom starts a new episode: the record joins the history,
// becomes the current problem, and the previous episode's chat is
// dropped. Timestamp defaults to now when empty.
func (d *Document) AppendSymptom(message, bodyPart, timestamp string) SymptomRecord {
	if timestamp == "" {
		timestamp = NowTimestamp()
	}
	rec := SymptomRecord{Message: message, BodyPart: bodyPart, Timestamp: timestamp}
	d.History = append(d.History, rec)
	snapshot := rec
	d.CurrentProblem = &snapshot
	d.ChatHistory = []ChatRecord{}
	return rec
}

// AttachAdvice writes generated advice onto the current problem and onto
// its matching history entry. The current problem is a value copy, so
// both must be updated together.
func (d *Document) AttachAdvice(advice string) {
	if d.CurrentProblem == nil {
		return
	}
	d.CurrentProblem.Advice = advice
	for i := range d.History {
		if d.History[i].Timestamp == d.CurrentProblem.Timestamp &&
			d.History[i].Message == d.CurrentProblem.Message &&
			d.History[i].Advice == "" {
			d.History[i].Advice = advice
			return
		}
	}
}

// AppendChatTurn adds one chat record to the current episode. Timestamp
// defaults to now when empty.
func (d *Document) AppendChatTurn(role, message, timestamp string) ChatRecord {
	if timestamp == "" {
		timestamp = NowTimestamp()
	}
	rec := ChatRecord{Role: role, Message: message, Timestamp: timestamp}
	d.ChatHistory = append(d.ChatHistory, rec)
	return rec
}

// RegisterDevice appends a device name. Duplicates are permitted.
func (d *Document) RegisterDevice(name string) {
	d.Devices = append(d.Devices, name)
}

// AppendSensorRecord ingests one opaque device reading, defaulting the
// timestamp to now when the record carries none.
func (d *Document) AppendSensorRecord(rec SensorRecord) SensorRecord {
	if rec == nil {
		rec = SensorRecord{}
	}
	if rec.Timestamp() == "" {
		rec["timestamp"] = NowTimestamp()
	}
	d.DevicesData = append(d.DevicesData, rec)
	return rec
}

// ResolveCurrentProblem returns the current problem, or synthesizes it as
// the newest history record for documents that predate the field.
func (d *Document) ResolveCurrentProblem() *SymptomRecord {
	if d.CurrentProblem != nil {
		return d.CurrentProblem
	}
	var newest *SymptomRecord
	var newestAt time.Time
	for i := range d.History {
		t, _ := ParseTimestamp(d.History[i].Timestamp)
		if newest == nil || t.After(newestAt) {
			newest = &d.History[i]
			newestAt = t
		}
	}
	if newest == nil {
		return nil
	}
	snapshot := *newest
	return &snapshot
}

// RecentSensorWindow filters readings to those within the last `hours`
// hours, newest-first. A non-positive hours falls back to the default
// window. Readings with missing or unparsable timestamps never make it
// into a positive window: the sentinel minimum instant is always older
// than the cutoff. This is intentionally stricter than the load-time
// tolerance that lets such records sort as oldest.
func RecentSensorWindow(data []SensorRecord, hours int) []SensorRecord {
	if hours <= 0 {
		hours = DefaultSensorWindowHours
	}
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	recent := []SensorRecord{}
	for _, rec := range data {
		t, ok := ParseTimestamp(rec.Timestamp())
		if ok && !t.Before(cutoff) {
			recent = append(recent, rec)
		}
	}
	sortByTimestamp(recent, func(r SensorRecord) string { return r.Timestamp() })
	return recent
}
