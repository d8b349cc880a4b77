package api

import (
	"net/http"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/repository"
)

func (s *Server) appointmentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/appointments", s.handleListAppointments)
	mux.HandleFunc("DELETE /api/appointments", s.handleDeleteAllAppointments)
	mux.HandleFunc("GET /api/appointments/hired", s.handleHired)
	mux.HandleFunc("POST /api/appointment", s.handleCreateAppointment)
	mux.HandleFunc("GET /api/appointment/{id}", s.handleGetAppointment)
	mux.HandleFunc("PUT /api/appointment/{id}", s.handleUpdateAppointment)
	mux.HandleFunc("DELETE /api/appointment/{id}", s.handleDeleteAppointment)
	mux.HandleFunc("GET /api/appointments/user/{id}", s.handleAppointmentsByUser)
	mux.HandleFunc("GET /api/appointments/count/{kind}/{id}", s.handleCountAppointments)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.deps.Appointments.ListAppointments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	respondJSON(w, http.StatusOK, appts)
}

func (s *Server) handleDeleteAllAppointments(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Appointments.DeleteAllAppointments(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, nil)
	respondJSON(w, http.StatusOK, map[string]string{"message": "All appointments deleted successfully."})
}

type hiredApplicant struct {
	User *model.UserSummary `json:"user"`
	Job  *model.JobSummary  `json:"job"`
}

func (s *Server) handleHired(w http.ResponseWriter, r *http.Request) {
	appts, err := s.deps.Appointments.ListHired(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]hiredApplicant, 0, len(appts))
	for _, a := range appts {
		out = append(out, hiredApplicant{User: a.User, Job: a.Job})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in repository.NewAppointment
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.UserID == "" || in.JobID == "" {
		s.badRequest(w, r, "userId and jobId are required.")
		return
	}
	appt, err := s.deps.Appointments.CreateAppointment(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, appt)
	respondJSON(w, http.StatusCreated, appt)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := s.deps.Appointments.GetAppointment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var upd repository.AppointmentUpdate
	if err := decodeBody(r, &upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	appt, err := s.deps.Appointments.UpdateAppointment(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, appt)
	respondJSON(w, http.StatusOK, map[string]any{"updatedAppointment": appt})
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := s.deps.Appointments.DeleteAppointment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.applicantChanged(r, appt)
	respondJSON(w, http.StatusOK, appt)
}

func (s *Server) handleAppointmentsByUser(w http.ResponseWriter, r *http.Request) {
	appts, err := s.deps.Appointments.ListAppointmentsByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(appts) == 0 {
		s.writeError(w, r, apperr.Newf(apperr.NotFound, "No appointments found for this user"))
		return
	}
	respondJSON(w, http.StatusOK, appts)
}

func (s *Server) handleCountAppointments(w http.ResponseWriter, r *http.Request) {
	filter, ok := repository.AppointmentCounts[r.PathValue("kind")]
	if !ok {
		s.writeError(w, r, apperr.Newf(apperr.NotFound, "unknown appointment count %q", r.PathValue("kind")))
		return
	}
	n, err := s.deps.Appointments.CountAppointments(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}
