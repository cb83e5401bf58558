package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studycompanion"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		studycompanion.Logger().Warn("Failed to write response", zap.Error(err))
	}
}

// writeError maps err onto a status code and writes the error body.
func writeError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, studycompanion.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, studycompanion.ErrNoStudyPlan):
		status = http.StatusNotFound
	case errors.Is(err, studycompanion.ErrBusy):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Message: message, Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", studycompanion.ErrInvalidRequest, err), "Invalid request body")
		return false
	}
	return true
}

func (s *Server) generationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.AI.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.AI.Timeout)
	}
	return context.WithCancel(ctx)
}

// generate runs fn while holding the session's busy gate, so a session has
// at most one generation in flight.
func generate[Req any](s *Server, w http.ResponseWriter, r *http.Request, message string, fn func(context.Context, *studycompanion.Session, Req) (any, error)) {
	var req Req
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.session(w, r)
	release, err := sess.Gate.TryAcquire()
	if err != nil {
		writeError(w, err, "A generation request is already in progress")
		return
	}
	defer release()

	ctx, cancel := s.generationContext(r.Context())
	defer cancel()

	resp, err := fn(ctx, sess, req)
	if err != nil {
		writeError(w, err, message)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateStudyPlan(w http.ResponseWriter, r *http.Request) {
	generate(s, w, r, "Failed to generate study plan",
		func(ctx context.Context, sess *studycompanion.Session, req studycompanion.StudyPlanRequest) (any, error) {
			plan, err := s.companion.GenerateStudyPlan(ctx, req)
			if err != nil {
				return nil, err
			}
			sess.Plan.SetStudyPlan(ctx, plan)
			return plan, nil
		})
}

func (s *Server) handleGenerateNotes(w http.ResponseWriter, r *http.Request) {
	generate(s, w, r, "Failed to generate notes",
		func(ctx context.Context, _ *studycompanion.Session, req studycompanion.NotesRequest) (any, error) {
			return s.companion.GenerateNotes(ctx, req)
		})
}

func (s *Server) handleGenerateExplanation(w http.ResponseWriter, r *http.Request) {
	generate(s, w, r, "Failed to generate explanation",
		func(ctx context.Context, _ *studycompanion.Session, req studycompanion.ExplanationRequest) (any, error) {
			return s.companion.GenerateExplanation(ctx, req)
		})
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	generate(s, w, r, "Failed to generate quiz",
		func(ctx context.Context, _ *studycompanion.Session, req studycompanion.QuizRequest) (any, error) {
			questions, err := s.companion.GenerateQuiz(ctx, req)
			if err != nil {
				return nil, err
			}
			return map[string]any{"questions": questions}, nil
		})
}

func (s *Server) handleGetStudyPlan(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	plan, ok := sess.Plan.StudyPlan()
	if !ok {
		writeError(w, studycompanion.ErrNoStudyPlan, "No study plan yet")
		return
	}
	progress, _ := sess.Plan.Progress()
	writeJSON(w, http.StatusOK, map[string]any{
		"studyPlan":       plan,
		"completedTopics": sess.Plan.Completion(),
		"progress":        progress,
	})
}

// handlePutStudyPlan replaces the plan with an edited one. Completion is
// reset like for a generated plan.
func (s *Server) handlePutStudyPlan(w http.ResponseWriter, r *http.Request) {
	var plan studycompanion.StudyPlan
	if !decodeJSON(w, r, &plan) {
		return
	}
	if err := plan.Validate(); err != nil {
		writeError(w, err, "Invalid study plan")
		return
	}
	if plan.ID == "" {
		plan.ID = fmt.Sprintf("sp-%d", s.now().UnixMilli())
	}

	sess := s.session(w, r)
	sess.Plan.SetStudyPlan(r.Context(), &plan)
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleToggleTopic(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: topic index must be a number", studycompanion.ErrInvalidRequest), "Invalid topic index")
		return
	}

	sess := s.session(w, r)
	progress, err := sess.Plan.ToggleTopic(r.Context(), index)
	if err != nil {
		writeError(w, err, "Failed to update topic")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":     index,
		"completed": sess.Plan.TopicStatus(index),
		"progress":  progress,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.session(w, r).Plan.Progress()
	if err != nil {
		writeError(w, err, "No study plan yet")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	countdown, err := s.session(w, r).Plan.Countdown(s.now())
	if err != nil {
		writeError(w, err, "No study plan yet")
		return
	}
	writeJSON(w, http.StatusOK, countdown)
}

// handleCountdownStream pushes the countdown as server-sent events once a
// second. The stream ends when the client goes away, the session's plan
// is replaced or the server shuts down.
func (s *Server) handleCountdownStream(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	plan, ok := sess.Plan.StudyPlan()
	if !ok {
		writeError(w, studycompanion.ErrNoStudyPlan, "No study plan yet")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.New("streaming unsupported"), "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.streams, cancel)
	defer stop()

	ticker := studycompanion.NewCountdownTicker(ctx, studycompanion.ParseExamTimestamp(plan.ExamDate))
	defer ticker.Stop()

	for countdown := range ticker.C {
		if current, ok := sess.Plan.StudyPlan(); !ok || current.ID != plan.ID {
			fmt.Fprint(w, "event: plan-changed\ndata: {}\n\n")
			flusher.Flush()
			return
		}
		data, err := json.Marshal(countdown)
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleListQuizResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.session(w, r).History.QuizResults(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load quiz results")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(results))
}

func (s *Server) handleAppendQuizResult(w http.ResponseWriter, r *http.Request) {
	var result studycompanion.QuizResult
	if !decodeJSON(w, r, &result) {
		return
	}
	saved, err := s.session(w, r).History.AppendQuizResult(r.Context(), result)
	if err != nil {
		writeError(w, err, "Failed to save quiz result")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type gradeRequest struct {
	Topic      string                        `json:"topic"`
	Difficulty string                        `json:"difficulty"`
	Questions  []studycompanion.QuizQuestion `json:"questions"`
	Answers    map[int]string                `json:"answers"`
}

// handleGradeQuiz scores submitted answers and records the result.
func (s *Server) handleGradeQuiz(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Topic == "" || len(req.Questions) == 0 {
		writeError(w, fmt.Errorf("%w: topic and questions are required", studycompanion.ErrInvalidRequest), "Invalid quiz submission")
		return
	}

	result := studycompanion.GradeQuiz(req.Topic, req.Difficulty, req.Questions, req.Answers, s.now())
	saved, err := s.session(w, r).History.AppendQuizResult(r.Context(), result)
	if err != nil {
		writeError(w, err, "Failed to save quiz result")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.session(w, r).History.Notes(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load notes")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

func (s *Server) handleAppendNote(w http.ResponseWriter, r *http.Request) {
	var note studycompanion.Note
	if !decodeJSON(w, r, &note) {
		return
	}
	saved, err := s.session(w, r).History.AppendNote(r.Context(), note)
	if err != nil {
		writeError(w, err, "Failed to save note")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListExplanations(w http.ResponseWriter, r *http.Request) {
	explanations, err := s.session(w, r).History.Explanations(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load explanations")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(explanations))
}

func (s *Server) handleAppendExplanation(w http.ResponseWriter, r *http.Request) {
	var explanation studycompanion.Explanation
	if !decodeJSON(w, r, &explanation) {
		return
	}
	saved, err := s.session(w, r).History.AppendExplanation(r.Context(), explanation)
	if err != nil {
		writeError(w, err, "Failed to save explanation")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	plan, ok := sess.Plan.StudyPlan()
	if !ok {
		writeError(w, studycompanion.ErrNoStudyPlan, "No study plan yet")
		return
	}

	ctx := r.Context()
	results, err := sess.History.QuizResults(ctx)
	if err != nil {
		writeError(w, err, "Failed to load quiz results")
		return
	}
	notes, err := sess.History.Notes(ctx)
	if err != nil {
		writeError(w, err, "Failed to load notes")
		return
	}
	explanations, err := sess.History.Explanations(ctx)
	if err != nil {
		writeError(w, err, "Failed to load explanations")
		return
	}

	writeJSON(w, http.StatusOK, studycompanion.BuildDashboard(plan, sess.Plan.Completion(), results, notes, explanations, s.now()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storage := "ok"
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			storage = "memory"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "storage": storage})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
