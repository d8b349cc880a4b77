package api

import (
	"net/http"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
	"github.com/dharsanguruparan/hirevault/internal/repository"
)

func (s *Server) applicationRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/applications", s.handleListApplications)
	mux.HandleFunc("DELETE /api/applications", s.handleDeleteAllApplications)
	mux.HandleFunc("POST /api/application", s.handleCreateApplication)
	mux.HandleFunc("GET /api/application/{id}", s.handleGetApplication)
	mux.HandleFunc("PUT /api/application/{id}", s.handleUpdateApplication)
	mux.HandleFunc("DELETE /api/application/{id}", s.handleDeleteApplication)
	mux.HandleFunc("GET /api/applications/user/{id}", s.handleApplicationsByUser)
	mux.HandleFunc("GET /api/applications/count/{kind}/{id}", s.handleCountApplications)
	mux.HandleFunc("POST /api/notifications/{id}", s.handleNotifications)
}

type applicationInput struct {
	UserID string `json:"userId"`
	JobID  string `json:"jobId"`
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.deps.Applications.ListApplications(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(apps) == 0 {
		s.writeError(w, r, apperr.Newf(apperr.NotFound, "No applications found"))
		return
	}
	respondJSON(w, http.StatusOK, apps)
}

func (s *Server) handleDeleteAllApplications(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Applications.DeleteAllApplications(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, nil)
	respondJSON(w, http.StatusOK, map[string]string{"message": "All applications deleted successfully."})
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var in applicationInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.UserID == "" || in.JobID == "" {
		s.badRequest(w, r, "userId and jobId are required.")
		return
	}
	app, err := s.deps.Applications.CreateApplication(r.Context(), in.UserID, in.JobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, app)
	respondJSON(w, http.StatusCreated, app)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.deps.Applications.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	var upd repository.ApplicationUpdate
	if err := decodeBody(r, &upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := s.deps.Applications.UpdateApplication(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, app)
	respondJSON(w, http.StatusOK, map[string]any{"message": app})
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.deps.Applications.DeleteApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, app)
	respondJSON(w, http.StatusOK, app)
}

func (s *Server) handleApplicationsByUser(w http.ResponseWriter, r *http.Request) {
	apps, err := s.deps.Applications.ListApplicationsByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(apps) == 0 {
		s.writeError(w, r, apperr.Newf(apperr.NotFound, "No applications found for this user"))
		return
	}
	respondJSON(w, http.StatusOK, apps)
}

func (s *Server) handleCountApplications(w http.ResponseWriter, r *http.Request) {
	filter, ok := repository.ApplicationCounts[r.PathValue("kind")]
	if !ok {
		s.writeError(w, r, apperr.Newf(apperr.NotFound, "unknown application count %q", r.PathValue("kind")))
		return
	}
	n, err := s.deps.Applications.CountApplications(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}

// handleNotifications returns a user's applications and appointments together.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	apps, err := s.deps.Applications.ListApplicationsByUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	appts, err := s.deps.Appointments.ListAppointmentsByUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(apps) == 0 && len(appts) == 0 {
		s.writeError(w, r, apperr.Newf(apperr.NotFound, "No notifications found for this user"))
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"applications": apps, "appointments": appts})
}

func (s *Server) applicantChanged(r *http.Request, payload any) {
	s.publish(r.Context(), realtime.Event{Name: realtime.EventApplicantData, Payload: payload})
}
