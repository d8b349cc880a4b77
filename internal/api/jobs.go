package api

import (
	"net/http"
	"strings"

	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/visibility"
)

func (s *Server) jobRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs-mobile", s.handleJobsMobile)
	mux.HandleFunc("POST /api/job", s.handleCreateJob)
	mux.HandleFunc("GET /api/job/{id}", s.handleGetJob)
	mux.HandleFunc("PUT /api/job/{id}", s.handleUpdateJob)
	mux.HandleFunc("DELETE /api/job/{id}", s.handleDeleteJob)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/category", s.handleCreateCategory)
}

type jobInput struct {
	Title    string `json:"title"`
	Details  string `json:"details"`
	Category string `json:"category"`
}

func (in jobInput) validate() string {
	if strings.TrimSpace(in.Title) == "" {
		return "Job title is required."
	}
	return ""
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Jobs.ListJobs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	respondJSON(w, http.StatusOK, jobs)
}

// handleJobsMobile lists every job annotated with the viewer's cooldown.
func (s *Server) handleJobsMobile(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.badRequest(w, r, "Missing userId in query params")
		return
	}
	ctx := r.Context()
	jobs, err := s.deps.Jobs.ListJobs(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	applications, err := s.deps.Applications.ListApplicationsByUser(ctx, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	appointments, err := s.deps.Appointments.ListAppointmentsByUser(ctx, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, visibility.Annotate(userID, jobs, applications, appointments, s.deps.Now()))
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in jobInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if msg := in.validate(); msg != "" {
		s.badRequest(w, r, msg)
		return
	}
	job := &model.Job{Title: in.Title, Details: in.Details, CategoryID: in.Category}
	if err := s.deps.Jobs.CreateJob(r.Context(), job); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Jobs.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var in jobInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if msg := in.validate(); msg != "" {
		s.badRequest(w, r, msg)
		return
	}
	job := &model.Job{ID: r.PathValue("id"), Title: in.Title, Details: in.Details, CategoryID: in.Category}
	if err := s.deps.Jobs.UpdateJob(r.Context(), job); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.deps.Jobs.GetJob(r.Context(), job.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Jobs.DeleteJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Jobs.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if err := decodeBody(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(c.Title) == "" {
		s.badRequest(w, r, "Category title is required.")
		return
	}
	if err := s.deps.Jobs.CreateCategory(r.Context(), &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}
