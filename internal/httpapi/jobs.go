package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskbay/taskbay/internal/middleware"
)

type registerWorkerRequest struct {
	Name  string `json:"name"`
	Skill string `json:"skill"`
}

func (s *Server) handleRegisterWorker(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetAccountID(r.Context())

	var req registerWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := s.market.RegisterWorker(r.Context(), identity, req.Name, req.Skill); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"worker_id": identity})
}

type postJobRequest struct {
	Description   string `json:"description"`
	Payment       int64  `json:"payment"`
	AttachedFunds int64  `json:"attached_funds"`
}

func (s *Server) handlePostJob(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetAccountID(r.Context())

	var req postJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	jobID, err := s.market.PostJob(r.Context(), identity, req.Description, req.Payment, req.AttachedFunds)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"job_id": jobID})
}

// jobAction runs a void lifecycle operation identified by the path job id.
func (s *Server) jobAction(w http.ResponseWriter, r *http.Request, op func(identity string, jobID int64) error) {
	identity := middleware.GetAccountID(r.Context())

	jobID, ok := jobIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("invalid job id"))
		return
	}

	if err := op(identity, jobID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.ApplyForJob(r.Context(), identity, jobID)
	})
}

type selectWorkerRequest struct {
	WorkerID string `json:"worker_id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.SelectWorker(r.Context(), identity, jobID, req.WorkerID)
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.CompleteJob(r.Context(), identity, jobID)
	})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.ReleasePayment(r.Context(), identity, jobID)
	})
}

func (s *Server) handleDispute(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.RaiseDispute(r.Context(), identity, jobID)
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.ResolveDispute(r.Context(), identity, jobID)
	})
}

type rateRequest struct {
	Rating int64 `json:"rating"`
}

func (s *Server) handleRateWorker(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.RateWorker(r.Context(), identity, jobID, req.Rating)
	})
}

func (s *Server) handleRateClient(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	s.jobAction(w, r, func(identity string, jobID int64) error {
		return s.market.RateClient(r.Context(), identity, jobID, req.Rating)
	})
}

type jobResponse struct {
	JobID       int64    `json:"job_id"`
	ClientID    string   `json:"client_id"`
	WorkerID    string   `json:"worker_id,omitempty"`
	WorkerName  string   `json:"worker_name,omitempty"`
	Description string   `json:"description"`
	Payment     int64    `json:"payment"`
	Applicants  []string `json:"applicants"`
	Completed   bool     `json:"completed"`
	Paid        bool     `json:"paid"`
	Disputed    bool     `json:"disputed"`
	WorkerRated bool     `json:"worker_rated"`
	ClientRated bool     `json:"client_rated"`
	CreatedAt   int64    `json:"created_at"`
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := jobIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("invalid job id"))
		return
	}

	view, err := s.market.GetJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	job := view.Job
	writeJSON(w, http.StatusOK, jobResponse{
		JobID:       job.ID,
		ClientID:    job.ClientID,
		WorkerID:    job.WorkerID,
		WorkerName:  view.WorkerName,
		Description: job.Description,
		Payment:     job.Payment,
		Applicants:  job.Applicants,
		Completed:   job.Completed,
		Paid:        job.Paid,
		Disputed:    job.Disputed,
		WorkerRated: job.WorkerRated,
		ClientRated: job.ClientRated,
		CreatedAt:   job.CreatedAt,
	})
}

type eventResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	JobID     int64  `json:"job_id"`
	Actor     string `json:"actor"`
	Subject   string `json:"subject,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID, ok := jobIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("invalid job id"))
		return
	}

	events, err := s.market.JobEvents(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i, ev := range events {
		out[i] = eventResponse{
			ID:        ev.ID,
			Type:      ev.Type,
			JobID:     ev.JobID,
			Actor:     ev.Actor,
			Subject:   ev.Subject,
			Amount:    ev.Amount,
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string][]eventResponse{"events": out})
}

func (s *Server) handleWorkerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.market.GetWorkerStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"completed_jobs": stats.CompletedJobs,
		"average_rating": stats.AverageRating,
	})
}

func (s *Server) handleClientStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.market.GetClientStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"average_rating": stats.AverageRating,
	})
}
