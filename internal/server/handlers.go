package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"health-journal/internal/advisor"
	"health-journal/internal/journal"
)

type symptomRequest struct {
	Message   string `json:"message"`
	BodyPart  string `json:"bodyPart"`
	Timestamp string `json:"timestamp,omitempty"`
}

type chatRequest struct {
	Messages []advisor.ChatTurn `json:"messages"`
}

type deviceRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleHistoryAll(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}
	s.respondJSON(w, http.StatusOK, doc.History)
}

func (s *Server) handleCreateSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" || req.BodyPart == "" {
		s.respondError(w, http.StatusBadRequest, "message and bodyPart are required")
		return
	}

	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}

	rec := doc.AppendSymptom(req.Message, req.BodyPart, req.Timestamp)

	// Advice generation failure never fails the submission.
	recent := journal.RecentSensorWindow(doc.DevicesData, s.config.SensorWindowHours)
	advice, genErr := s.advisor.Advice(r.Context(), doc.History, rec, recent)
	if genErr != nil {
		s.logger.Warn("advice generation failed", zap.Error(genErr))
		advice = fmt.Sprintf("System notice: AI call failed, so here is a fallback message.\nInternal error: %v", genErr)
	}
	doc.AttachAdvice(advice)
	doc.AppendChatTurn("assistant", advice, "")

	if err := s.store.Save(doc); err != nil {
		s.logger.Error("save journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save journal")
		return
	}

	rec.Advice = advice
	s.respondJSON(w, http.StatusOK, map[string]any{
		"history_item": rec,
		"advice":       advice,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var lastUser *advisor.ChatTurn
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = &req.Messages[i]
			break
		}
	}
	if lastUser == nil {
		s.respondJSON(w, http.StatusOK, map[string]any{
			"messages": req.Messages,
			"error":    "No user message found",
		})
		return
	}

	reply, genErr := s.advisor.ChatReply(r.Context(), req.Messages, *lastUser)
	if genErr != nil {
		s.logger.Warn("chat reply generation failed", zap.Error(genErr))
		reply = fmt.Sprintf("System notice: AI call failed.\nError: %v", genErr)
	}

	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}
	doc.AppendChatTurn("user", lastUser.Message, lastUser.Timestamp)
	assistant := doc.AppendChatTurn("assistant", reply, "")
	if err := s.store.Save(doc); err != nil {
		s.logger.Error("save journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save journal")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"messages": append(req.Messages, advisor.ChatTurn{
			Role:      assistant.Role,
			Message:   assistant.Message,
			Timestamp: assistant.Timestamp,
		}),
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}

	entries := []journal.ChatRecord{}
	if cp := doc.ResolveCurrentProblem(); cp != nil {
		entries = append(entries, journal.ChatRecord{
			Role:      "user",
			Message:   fmt.Sprintf("[Initial complaint] %s", cp.Message),
			Timestamp: cp.Timestamp,
		})
	}
	entries = append(entries, doc.ChatHistory...)

	// Conversation renders oldest-first.
	sort.SliceStable(entries, func(i, j int) bool {
		ti, _ := journal.ParseTimestamp(entries[i].Timestamp)
		tj, _ := journal.ParseTimestamp(entries[j].Timestamp)
		return ti.Before(tj)
	})

	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}
	doc.RegisterDevice(req.Name)
	if err := s.store.Save(doc); err != nil {
		s.logger.Error("save journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save journal")
		return
	}
	s.respondJSON(w, http.StatusOK, doc.Devices)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}
	s.respondJSON(w, http.StatusOK, doc.Devices)
}

func (s *Server) handleListSensorData(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}
	s.respondJSON(w, http.StatusOK, doc.DevicesData)
}

func (s *Server) handleIngestSensorData(w http.ResponseWriter, r *http.Request) {
	var rec journal.SensorRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}
	stored := doc.AppendSensorRecord(rec)
	if err := s.store.Save(doc); err != nil {
		s.logger.Error("save journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save journal")
		return
	}
	s.respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}

	tags, genErr := s.advisor.RiskTags(r.Context(), doc)
	if genErr != nil {
		s.logger.Warn("risk analysis failed", zap.Error(genErr))
		tags = []advisor.RiskTag{{Disease: "Analysis failed", Risk: 0}}
	}
	s.respondJSON(w, http.StatusOK, tags)
}

func (s *Server) handleDoctorReport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("load journal failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load journal")
		return
	}

	summary, genErr := s.advisor.OverallSummary(r.Context(), doc)
	if genErr != nil {
		s.logger.Warn("summary generation failed", zap.Error(genErr))
		summary = fmt.Sprintf("Automated summary could not be generated (internal error: %v).", genErr)
	}

	path, err := s.renderer.Render(doc, summary)
	if err != nil {
		s.logger.Error("report rendering failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="doctor_report.pdf"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
