// Package report renders the downloadable doctor report: a PDF snapshot
// of the journal plus a model-generated overall summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"health-journal/internal/journal"
)

const (
	pageMargin  = 40.0
	usableWidth = 612 - 2*pageMargin // Letter width in points
)

// Renderer writes doctor reports into a fixed output directory. Each
// render produces a fresh file so concurrent downloads never clobber
// each other.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure report dir: %w", err)
	}
	return &Renderer{outputDir: outputDir}, nil
}

// Render builds the PDF for a document snapshot and an already-generated
// overall summary, returning the absolute file path.
func (r *Renderer) Render(doc *journal.Document, overallSummary string) (string, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, 60, pageMargin)
	pdf.SetAutoPageBreak(true, 40)
	pdf.SetTitle("Patient Report", false)
	pdf.AddPage()

	b := builder{pdf: pdf}

	b.title("Patient Report")
	b.smallGrey("Automatically generated summary from the health-monitoring application.")
	pdf.Ln(16)

	b.heading1("Overall Summary")
	b.body(overallSummary)
	pdf.Ln(16)

	b.currentProblemSection(doc)
	b.divider()

	b.activitySection(doc.History)
	b.historySection(doc.History, 3)
	b.devicesSection(doc.Devices)
	b.sensorSection(doc.DevicesData, 5)
	b.chatSection(doc.ChatHistory, 6)

	pdf.Ln(24)
	b.smallGrey("Note: This report is generated by an automated system and is not a substitute for professional medical evaluation or diagnosis.")

	path := filepath.Join(r.outputDir, fmt.Sprintf("doctor_report-%s.pdf", uuid.NewString()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write report pdf: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

type builder struct {
	pdf *fpdf.Fpdf
}

func (b *builder) title(text string) {
	b.pdf.SetFont("Helvetica", "B", 18)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.CellFormat(usableWidth, 24, text, "", 1, "C", false, 0, "")
	b.pdf.Ln(4)
}

func (b *builder) heading1(text string) {
	b.pdf.SetFont("Helvetica", "B", 14)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.CellFormat(usableWidth, 20, text, "", 1, "L", false, 0, "")
}

func (b *builder) heading2(text string) {
	b.pdf.SetFont("Helvetica", "B", 12)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.CellFormat(usableWidth, 18, text, "", 1, "L", false, 0, "")
}

func (b *builder) body(text string) {
	b.pdf.SetFont("Helvetica", "", 10)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.MultiCell(usableWidth, 13, text, "", "L", false)
}

func (b *builder) bodyBold(text string) {
	b.pdf.SetFont("Helvetica", "B", 10)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.MultiCell(usableWidth, 13, text, "", "L", false)
}

func (b *builder) bodyItalic(text string) {
	b.pdf.SetFont("Helvetica", "I", 10)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.MultiCell(usableWidth, 13, text, "", "L", false)
}

func (b *builder) smallGrey(text string) {
	b.pdf.SetFont("Helvetica", "", 8)
	b.pdf.SetTextColor(128, 128, 128)
	b.pdf.MultiCell(usableWidth, 11, text, "", "L", false)
}

func (b *builder) divider() {
	b.pdf.Ln(8)
	b.pdf.SetDrawColor(128, 128, 128)
	x, y := b.pdf.GetX(), b.pdf.GetY()
	b.pdf.Line(x, y, x+usableWidth, y)
	b.pdf.Ln(16)
}

func (b *builder) currentProblemSection(doc *journal.Document) {
	b.heading2("Current Problem Snapshot")
	cp := doc.ResolveCurrentProblem()
	if cp == nil {
		b.body("No current problem has been selected yet.")
		return
	}
	b.body(fmt.Sprintf("Reported at: %s", journal.FormatTimestamp(cp.Timestamp)))
	b.body(fmt.Sprintf("Body area: %s", bodyPartOrUnknown(cp.BodyPart)))
	b.body(fmt.Sprintf("Description: %s", cp.Message))
	if cp.Advice != "" {
		b.body(fmt.Sprintf("Initial app advice: %s", cp.Advice))
	}
}

func (b *builder) activitySection(history []journal.SymptomRecord) {
	b.heading2("Activity Overview")
	if len(history) == 0 {
		b.body("No activity recorded yet.")
		b.pdf.Ln(10)
		return
	}
	for _, line := range SummarizeActivity(history).Lines() {
		b.body(line)
	}
	b.pdf.Ln(10)
}

func (b *builder) historySection(history []journal.SymptomRecord, maxItems int) {
	b.heading2("Symptom History")
	if len(history) == 0 {
		b.body("No symptom history recorded yet.")
		b.pdf.Ln(10)
		return
	}
	for _, item := range firstN(history, maxItems) {
		b.bodyBold(fmt.Sprintf("%s - %s", journal.FormatTimestamp(item.Timestamp), bodyPartOrUnknown(item.BodyPart)))
		b.body(item.Message)
		if item.Advice != "" {
			b.bodyItalic(fmt.Sprintf("App advice at that time: %s", item.Advice))
		}
		b.pdf.Ln(6)
	}
	b.pdf.Ln(10)
}

func (b *builder) devicesSection(devices []string) {
	b.heading2("Devices")
	if len(devices) == 0 {
		b.body("No devices registered.")
		b.pdf.Ln(10)
		return
	}
	for _, d := range devices {
		b.body(fmt.Sprintf("- %s", d))
	}
	b.pdf.Ln(10)
}

func (b *builder) sensorSection(data []journal.SensorRecord, maxItems int) {
	b.heading2("Sensor Data (Recent Records)")
	if len(data) == 0 {
		b.body("No sensor data available.")
		b.pdf.Ln(10)
		return
	}

	colWidths := []float64{120, 110, usableWidth - 230}
	headers := []string{"Time", "Source", "Data Summary"}

	b.pdf.SetFont("Helvetica", "B", 10)
	b.pdf.SetFillColor(79, 129, 189)
	b.pdf.SetTextColor(255, 255, 255)
	b.pdf.SetDrawColor(128, 128, 128)
	for i, h := range headers {
		b.pdf.CellFormat(colWidths[i], 18, h, "1", 0, "L", true, 0, "")
	}
	b.pdf.Ln(-1)

	b.pdf.SetFont("Helvetica", "", 9)
	b.pdf.SetFillColor(245, 245, 245)
	b.pdf.SetTextColor(0, 0, 0)
	for _, rec := range firstN(data, maxItems) {
		cells := []string{
			journal.FormatTimestamp(rec.Timestamp()),
			sensorSource(rec),
			sensorSummary(rec),
		}
		for i, c := range cells {
			b.pdf.CellFormat(colWidths[i], 16, c, "1", 0, "L", true, 0, "")
		}
		b.pdf.Ln(-1)
	}
	b.pdf.Ln(10)
}

func (b *builder) chatSection(chat []journal.ChatRecord, maxItems int) {
	b.heading2("Chat Summary (Recent Messages)")
	if len(chat) == 0 {
		b.body("No chat conversation recorded for this problem.")
		b.pdf.Ln(10)
		return
	}
	for _, msg := range firstN(chat, maxItems) {
		label := "Assistant"
		if msg.Role == "user" {
			label = "User"
		}
		b.bodyBold(fmt.Sprintf("%s (%s)", label, journal.FormatTimestamp(msg.Timestamp)))
		b.body(msg.Message)
		b.pdf.Ln(6)
	}
	b.pdf.Ln(10)
}

func bodyPartOrUnknown(part string) string {
	if part == "" {
		return "Unknown area"
	}
	return part
}

// sensorSource picks a display value for where a reading came from.
func sensorSource(rec journal.SensorRecord) string {
	for _, key := range []string{"device", "source"} {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	return "-"
}

// sensorSummary joins the remaining opaque fields as "k: v" pairs, keys
// sorted for stable output.
func sensorSummary(rec journal.SensorRecord) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if k == "timestamp" || k == "device" || k == "source" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "-"
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, rec[k]))
	}
	return strings.Join(parts, ", ")
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
