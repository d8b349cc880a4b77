package api

import (
	"context"
	"io"

	"github.com/dharsanguruparan/hirevault/internal/assets"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/repository"
)

// UserStore is satisfied by *repository.UserRepository.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// JobStore is satisfied by *repository.JobRepository.
type JobStore interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJob(ctx context.Context, job *model.Job) error
	DeleteJob(ctx context.Context, id string) (*model.Job, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error
}

// ApplicationStore is satisfied by *repository.ApplicationRepository.
type ApplicationStore interface {
	ListApplications(ctx context.Context) ([]model.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]model.Application, error)
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	CreateApplication(ctx context.Context, userID, jobID string) (*model.Application, error)
	UpdateApplication(ctx context.Context, id string, upd repository.ApplicationUpdate) (*model.Application, error)
	DeleteApplication(ctx context.Context, id string) (*model.Application, error)
	DeleteAllApplications(ctx context.Context) error
	CountApplications(ctx context.Context, userID string, f repository.Filter) (int, error)
}

// AppointmentStore is satisfied by *repository.AppointmentRepository.
type AppointmentStore interface {
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	ListAppointmentsByUser(ctx context.Context, userID string) ([]model.Appointment, error)
	ListHired(ctx context.Context) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	CreateAppointment(ctx context.Context, in repository.NewAppointment) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, upd repository.AppointmentUpdate) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) (*model.Appointment, error)
	DeleteAllAppointments(ctx context.Context) error
	CountAppointments(ctx context.Context, userID string, f repository.Filter) (int, error)
}

// CollaboratorStore is satisfied by *repository.CollaboratorRepository.
type CollaboratorStore interface {
	ListCollaborators(ctx context.Context) ([]model.Collaborator, error)
	GetCollaborator(ctx context.Context, id string) (*model.Collaborator, error)
	CreateCollaborator(ctx context.Context, c *model.Collaborator) error
	CreateChat(ctx context.Context, msg *model.ChatMessage) error
	ListChats(ctx context.Context, collaboratorID string) ([]model.ChatMessage, error)
}

// AssetService is satisfied by *assets.Manager.
type AssetService interface {
	ReplaceSingleAsset(ctx context.Context, ownerID string, slot model.Slot, file assets.File) (assets.Replacement, error)
	AppendPortfolioAssets(ctx context.Context, ownerID string, files []assets.File) ([]model.AssetRef, error)
	RemovePortfolioAssets(ctx context.Context, ownerID string, assetIDs []string) ([]assets.Cleanup, error)
	AppendChatAttachment(ctx context.Context, collaboratorID, senderID string, files []assets.File) (*model.ChatMessage, error)
	StatAsset(ctx context.Context, assetID string) (assets.Object, error)
	DownloadAsset(ctx context.Context, assetID string) (assets.Object, io.ReadCloser, error)
	ProvisionUserFolders(ctx context.Context, userID string) (model.Directories, error)
}

var (
	_ UserStore         = (*repository.UserRepository)(nil)
	_ JobStore          = (*repository.JobRepository)(nil)
	_ ApplicationStore  = (*repository.ApplicationRepository)(nil)
	_ AppointmentStore  = (*repository.AppointmentRepository)(nil)
	_ CollaboratorStore = (*repository.CollaboratorRepository)(nil)
	_ AssetService      = (*assets.Manager)(nil)
)
