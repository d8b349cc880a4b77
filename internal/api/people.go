package api

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
)

func (s *Server) peopleRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/user", s.handleCreateUser)
	mux.HandleFunc("GET /api/user/{id}", s.handleGetUser)
	mux.HandleFunc("GET /api/collaborators", s.handleListCollaborators)
	mux.HandleFunc("POST /api/collaborator", s.handleCreateCollaborator)
	mux.HandleFunc("GET /api/chats/{collaboratorId}", s.handleListChats)
	mux.HandleFunc("POST /api/chat", s.handleCreateChat)
}

type userInput struct {
	FullName string         `json:"fullName"`
	Contact  string         `json:"contact"`
	Email    string         `json:"email"`
	Username string         `json:"username"`
	Password string         `json:"password"`
	Position model.Position `json:"position"`
}

func (in userInput) validate() string {
	switch {
	case strings.TrimSpace(in.FullName) == "":
		return "Full name is required."
	case !strings.Contains(in.Email, "@"):
		return "A valid email is required."
	case strings.TrimSpace(in.Username) == "":
		return "Username is required."
	case len(in.Password) < 8:
		return "Password must be at least 8 characters."
	}
	return ""
}

// handleCreateUser registers a user and provisions their asset folders. A
// provisioning failure is reported but does not undo the registration.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if msg := in.validate(); msg != "" {
		s.badRequest(w, r, msg)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.writeError(w, r, apperr.New(apperr.Internal, "hash password", err))
		return
	}
	user := &model.User{
		FullName:     strings.TrimSpace(in.FullName),
		Contact:      in.Contact,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: string(hash),
		Position:     in.Position,
	}
	if err := s.deps.Users.CreateUser(r.Context(), user); err != nil {
		s.writeError(w, r, err)
		return
	}
	dirs, err := s.deps.Assets.ProvisionUserFolders(r.Context(), user.ID)
	if err != nil {
		s.log.Warn("provision user folders", "user", user.ID, "err", err)
		respondJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "User created; asset folders could not be provisioned.",
			"user":    user,
		})
		return
	}
	user.Directories = &dirs
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Users.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Collaborators.ListCollaborators(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Collaborator{}
	}
	respondJSON(w, http.StatusOK, list)
}

type collaboratorInput struct {
	Title    string   `json:"title"`
	JobID    string   `json:"job"`
	ClientID string   `json:"client"`
	UserIDs  []string `json:"users"`
}

func (s *Server) handleCreateCollaborator(w http.ResponseWriter, r *http.Request) {
	var in collaboratorInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		s.badRequest(w, r, "Collaborator title is required.")
		return
	}
	c := &model.Collaborator{Title: in.Title, JobID: in.JobID, ClientID: in.ClientID, UserIDs: in.UserIDs}
	if err := s.deps.Collaborators.CreateCollaborator(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Collaborators.GetCollaborator(r.Context(), c.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Collaborators.ListChats(r.Context(), r.PathValue("collaboratorId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

type chatInput struct {
	CollaboratorID string `json:"collaboratorId"`
	SenderID       string `json:"senderId"`
	Message        string `json:"message"`
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var in chatInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.CollaboratorID == "" || in.SenderID == "" || strings.TrimSpace(in.Message) == "" {
		s.badRequest(w, r, "collaboratorId, senderId and message are required.")
		return
	}
	ctx := r.Context()
	if _, err := s.deps.Collaborators.GetCollaborator(ctx, in.CollaboratorID); err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.deps.Now().UTC()
	msg := &model.ChatMessage{
		SenderID:       in.SenderID,
		CollaboratorID: in.CollaboratorID,
		Entries:        []model.ChatEntry{{Type: model.EntryText, Content: in.Message, Timestamp: now}},
		CreatedAt:      now,
	}
	if err := s.deps.Collaborators.CreateChat(ctx, msg); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(ctx, realtime.Event{Name: realtime.EventReceiveMessage, Room: in.CollaboratorID, Payload: msg})
	respondJSON(w, http.StatusCreated, msg)
}
