package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rnwolfe/habit/internal/auth"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/habit"
	"github.com/rnwolfe/habit/internal/logger"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks caller mistakes that are not domain validation errors.
var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", errBadRequest, msg)
}

// writeJSON writes JSON responses with a consistent content type.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to a status code. Unexpected errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("api request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, habit.ErrNotFound):
		return http.StatusNotFound, "Habit not found"
	case errors.Is(err, habit.ErrInvalidName),
		errors.Is(err, habit.ErrInvalidDay),
		errors.Is(err, habit.ErrAmbiguous),
		errors.Is(err, daykey.ErrInvalidDateFormat),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badRequest("request body must be a JSON object")
	}
	return nil
}

// dayParam reads a YYYY-MM-DD value, falling back to today when blank.
func (s *Server) dayParam(raw string) (daykey.Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.today(), nil
	}
	return daykey.Parse(raw)
}

type habitsResponse struct {
	Habits []habit.Habit `json:"habits"`
}

type habitResponse struct {
	Habit *habit.Habit `json:"habit"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.habits.List(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if habits == nil {
		habits = []habit.Habit{}
	}
	writeJSON(w, http.StatusOK, habitsResponse{Habits: habits})
}

type habitRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h, err := s.habits.Add(auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habitResponse{Habit: h})
}

func (s *Server) renameHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, badRequest("Habit ID is required"))
		return
	}
	h, err := s.habits.Rename(auth.UserID(r.Context()), req.ID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habitResponse{Habit: h})
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, badRequest("Habit ID is required"))
		return
	}
	if err := s.habits.Delete(auth.UserID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type completionsResponse struct {
	Completions []habit.Completion `json:"completions"`
}

func (s *Server) listCompletions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := s.dayParam(q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	cs, err := s.habits.CompletionsOn(auth.UserID(r.Context()), day, strings.TrimSpace(q.Get("habit_id")))
	if err != nil {
		writeError(w, err)
		return
	}
	if cs == nil {
		cs = []habit.Completion{}
	}
	writeJSON(w, http.StatusOK, completionsResponse{Completions: cs})
}

type completionRequest struct {
	HabitID        string `json:"habit_id"`
	CompletionDate string `json:"completion_date"`
}

type completionResponse struct {
	Completion    *habit.Completion `json:"completion"`
	AlreadyExists bool              `json:"alreadyExists,omitempty"`
}

func (s *Server) createCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.HabitID) == "" {
		writeError(w, badRequest("Habit ID is required"))
		return
	}
	day, err := s.dayParam(req.CompletionDate)
	if err != nil {
		writeError(w, err)
		return
	}

	c, existed, err := s.habits.Complete(auth.UserID(r.Context()), req.HabitID, day)
	if err != nil {
		writeError(w, err)
		return
	}
	if existed {
		writeJSON(w, http.StatusOK, completionResponse{AlreadyExists: true})
		return
	}
	writeJSON(w, http.StatusOK, completionResponse{Completion: c})
}

func (s *Server) deleteCompletion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	habitID := strings.TrimSpace(q.Get("habit_id"))
	if habitID == "" {
		writeError(w, badRequest("Habit ID is required"))
		return
	}
	day, err := s.dayParam(q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.habits.Uncomplete(auth.UserID(r.Context()), habitID, day); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type streaksResponse struct {
	Streaks map[string]int `json:"streaks"`
	Longest map[string]int `json:"longest"`
}

func (s *Server) getStreaks(w http.ResponseWriter, r *http.Request) {
	habitID := strings.TrimSpace(r.URL.Query().Get("habit_id"))
	infos, err := s.habits.Streaks(auth.UserID(r.Context()), habitID, s.now().In(s.loc))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := streaksResponse{
		Streaks: make(map[string]int, len(infos)),
		Longest: make(map[string]int, len(infos)),
	}
	for id, info := range infos {
		resp.Streaks[id] = info.Current
		resp.Longest[id] = info.Longest
	}
	writeJSON(w, http.StatusOK, resp)
}
