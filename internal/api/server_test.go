package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/assets"
	"github.com/dharsanguruparan/hirevault/internal/config"
	"github.com/dharsanguruparan/hirevault/internal/logging"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
	"github.com/dharsanguruparan/hirevault/internal/repository"
	"github.com/dharsanguruparan/hirevault/internal/signing"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeJobs struct {
	JobStore
	jobs    []model.Job
	created *model.Job
	err     error
}

func (f *fakeJobs) ListJobs(context.Context) ([]model.Job, error) { return f.jobs, f.err }

func (f *fakeJobs) CreateJob(_ context.Context, job *model.Job) error {
	if f.err != nil {
		return f.err
	}
	job.ID = "job-new"
	f.created = job
	return nil
}

type fakeApplications struct {
	ApplicationStore
	byUser  []model.Application
	counted repository.Filter
}

func (f *fakeApplications) ListApplicationsByUser(context.Context, string) ([]model.Application, error) {
	return f.byUser, nil
}

func (f *fakeApplications) ListApplications(context.Context) ([]model.Application, error) {
	return nil, nil
}

func (f *fakeApplications) CountApplications(_ context.Context, _ string, filter repository.Filter) (int, error) {
	f.counted = filter
	return 3, nil
}

type fakeAppointments struct {
	AppointmentStore
	byUser []model.Appointment
	hired  []model.Appointment
}

func (f *fakeAppointments) ListHired(context.Context) ([]model.Appointment, error) {
	return f.hired, nil
}

func (f *fakeAppointments) ListAppointmentsByUser(context.Context, string) ([]model.Appointment, error) {
	return f.byUser, nil
}

type fakeUsers struct {
	UserStore
	created *model.User
	err     error
}

func (f *fakeUsers) CreateUser(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	u.ID = "user-1"
	f.created = u
	return nil
}

type fakeAssets struct {
	AssetService
	replaced    []assets.File
	slot        model.Slot
	bodies      []string
	provisioned string
	object      assets.Object
	content     string
	downloadErr error
	streams     []*trackedStream
}

// trackedStream records whether a handler closed the content it was given.
type trackedStream struct {
	io.Reader
	closed bool
}

func (t *trackedStream) Close() error {
	t.closed = true
	return nil
}

func (f *fakeAssets) ReplaceSingleAsset(_ context.Context, _ string, slot model.Slot, file assets.File) (assets.Replacement, error) {
	body, _ := io.ReadAll(file.Body)
	f.slot = slot
	f.replaced = append(f.replaced, file)
	f.bodies = append(f.bodies, string(body))
	return assets.Replacement{Asset: model.AssetRef{ID: "asset-1", Name: file.Name}}, nil
}

func (f *fakeAssets) AppendPortfolioAssets(_ context.Context, _ string, files []assets.File) ([]model.AssetRef, error) {
	refs := make([]model.AssetRef, len(files))
	for i, file := range files {
		body, _ := io.ReadAll(file.Body)
		f.bodies = append(f.bodies, string(body))
		refs[i] = model.AssetRef{ID: file.Name, Name: file.Name}
	}
	return refs, nil
}

func (f *fakeAssets) StatAsset(context.Context, string) (assets.Object, error) {
	if f.downloadErr != nil {
		return assets.Object{}, f.downloadErr
	}
	return f.object, nil
}

func (f *fakeAssets) DownloadAsset(context.Context, string) (assets.Object, io.ReadCloser, error) {
	if f.downloadErr != nil {
		return assets.Object{}, nil, f.downloadErr
	}
	rc := &trackedStream{Reader: strings.NewReader(f.content)}
	f.streams = append(f.streams, rc)
	return f.object, rc, nil
}

func (f *fakeAssets) ProvisionUserFolders(_ context.Context, userID string) (model.Directories, error) {
	f.provisioned = userID
	return model.Directories{}, nil
}

type recordingNotifier struct{ events []realtime.Event }

func (n *recordingNotifier) Publish(_ context.Context, ev realtime.Event) error {
	n.events = append(n.events, ev)
	return nil
}

type harness struct {
	cfg          *config.Config
	jobs         *fakeJobs
	applications *fakeApplications
	appointments *fakeAppointments
	users        *fakeUsers
	collabs      *fakeCollaborators
	assets       *fakeAssets
	notifier     *recordingNotifier
	fs           afero.Fs
	signer       *signing.Signer
	logs         *logging.TestLogger
}

func newHarness() *harness {
	return &harness{
		cfg: &config.Config{
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxFileSize:    1 << 10,
			SignedURLTTL:   time.Minute,
		},
		jobs:         &fakeJobs{},
		applications: &fakeApplications{},
		appointments: &fakeAppointments{},
		users:        &fakeUsers{},
		collabs:      &fakeCollaborators{},
		assets:       &fakeAssets{},
		notifier:     &recordingNotifier{},
		fs:           afero.NewMemMapFs(),
		signer:       signing.NewSigner([]byte("secret"), time.Minute),
		logs:         logging.NewTest(),
	}
}

func (h *harness) handler() http.Handler {
	return New(h.cfg, Deps{
		Users:         h.users,
		Jobs:          h.jobs,
		Applications:  h.applications,
		Appointments:  h.appointments,
		Collaborators: h.collabs,
		Assets:        h.assets,
		Notifier:      h.notifier,
		Signer:        h.signer,
		Logger:        h.logs.Logger,
		FS:            h.fs,
		Now:           func() time.Time { return testNow },
	}).Handler()
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealth(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := h.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Not allowed by CORS", body.Message)
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := h.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListJobsEmptyIsArray(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestJobsMobileRequiresUser(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/jobs-mobile", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Missing userId in query params", body.Message)
}

func TestJobsMobileAnnotatesCooldown(t *testing.T) {
	h := newHarness()
	h.jobs.jobs = []model.Job{{ID: "j1", Title: "Welder"}, {ID: "j2", Title: "Driver"}}
	rejected := testNow.Add(-48 * time.Hour)
	h.applications.byUser = []model.Application{
		{UserID: "u1", JobID: "j1", Status: model.StatusPositive, CreatedAt: testNow.Add(-72 * time.Hour)},
	}
	h.appointments.byUser = []model.Appointment{
		{UserID: "u1", JobID: "j1", Status: model.StatusNegative, CreatedAt: rejected},
	}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/jobs-mobile?userId=u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listings []model.JobListing
	decode(t, rec, &listings)
	require.Len(t, listings, 2)
	require.NotNil(t, listings[0].DisabledUntil)
	assert.True(t, rejected.Add(30*24*time.Hour).Equal(*listings[0].DisabledUntil))
	assert.Nil(t, listings[1].DisabledUntil)
}

func TestCreateJobValidates(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/job", strings.NewReader(`{"details":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/job", strings.NewReader(`{"title":"Welder","category":"c1"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, h.jobs.created)
	assert.Equal(t, "c1", h.jobs.created.CategoryID)
}

func TestCreateJobUnknownCategory(t *testing.T) {
	h := newHarness()
	h.jobs.err = apperr.New(apperr.NotFound, "Cannot find any category with ID: c9", io.ErrUnexpectedEOF)
	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/job", strings.NewReader(`{"title":"Welder","category":"c9"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Cannot find any category with ID: c9", body.Message)
	assert.Nil(t, h.jobs.created)
}

func TestInvalidJSONIsBadRequest(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/job", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInternalErrorsAreMasked(t *testing.T) {
	h := newHarness()
	h.jobs.err = io.ErrUnexpectedEOF
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Contains(t, h.logs.Output(), "request failed")
}

func TestDuplicateFieldBody(t *testing.T) {
	h := newHarness()
	h.users.err = apperr.Duplicate("email", "jane@example.com", nil)
	payload := `{"fullName":"Jane Doe","email":"jane@example.com","username":"jane","password":"secret123"}`
	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(payload)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Duplicate field value. This value already exists.","field":{"email":"jane@example.com"}}`, rec.Body.String())
}

func TestCountUnknownKind(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/applications/count/bogus/u1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/applications/count/pending/u1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
	assert.Equal(t, repository.ApplicationCounts["pending"], h.applications.counted)
}

func TestEmptyApplicationListIsNotFound(t *testing.T) {
	h := newHarness()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/applications", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type part struct {
	field, filename, contentType, body string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			hdr.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = io.WriteString(w, p.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func spoolFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, os.TempDir())
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadResumeSniffsAndCleansUp(t *testing.T) {
	h := newHarness()
	req := multipartRequest(t, "/api/upload-resume", map[string]string{"id": "u1"},
		part{field: "resume", filename: "cv.pdf", contentType: "application/octet-stream", body: "%PDF-1.4\n%fake"})
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Resume uploaded and user updated successfully", body["message"])
	assert.Equal(t, true, body["success"])

	require.Len(t, h.assets.replaced, 1)
	assert.Equal(t, model.SlotResume, h.assets.slot)
	assert.Equal(t, "application/pdf", h.assets.replaced[0].ContentType)
	assert.Equal(t, int64(len("%PDF-1.4\n%fake")), h.assets.replaced[0].Size)
	assert.Equal(t, "%PDF-1.4\n%fake", h.assets.bodies[0])
	assert.Empty(t, spoolFiles(t, h.fs))
}

func TestUploadKeepsDeclaredType(t *testing.T) {
	h := newHarness()
	req := multipartRequest(t, "/api/upload-profile", map[string]string{"id": "u1"},
		part{field: "profile", filename: "me.png", contentType: "image/png; charset=binary", body: "not really a png"})
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.SlotProfile, h.assets.slot)
	assert.Equal(t, "image/png", h.assets.replaced[0].ContentType)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	h := newHarness()
	req := multipartRequest(t, "/api/upload-resume", map[string]string{"id": "u1"},
		part{field: "resume", filename: "big.pdf", contentType: "application/pdf", body: strings.Repeat("x", 2<<10)})
	rec := h.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, h.assets.replaced)
	assert.Empty(t, spoolFiles(t, h.fs))
}

func TestUploadRequiresOwnerAndFile(t *testing.T) {
	h := newHarness()
	rec := h.do(multipartRequest(t, "/api/upload-resume", nil,
		part{field: "resume", filename: "cv.pdf", contentType: "application/pdf", body: "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(multipartRequest(t, "/api/upload-resume", map[string]string{"id": "u1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/upload-resume", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadPortfolioBatch(t *testing.T) {
	h := newHarness()
	req := multipartRequest(t, "/api/upload-portfolio", map[string]string{"id": "u1"},
		part{field: "portfolio", filename: "a.png", contentType: "image/png", body: "one"},
		part{field: "portfolio", filename: "b.png", contentType: "image/png", body: "two"},
		part{field: "ignored", filename: "c.png", contentType: "image/png", body: "three"})
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Files []model.AssetRef `json:"files"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Files, 2)
	assert.Equal(t, []string{"one", "two"}, h.assets.bodies)
}

func TestCreateUserProvisionsFolders(t *testing.T) {
	h := newHarness()
	payload := `{"fullName":"Jane Doe","email":"jane@example.com","username":"jane","password":"secret123"}`
	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user-1", h.assets.provisioned)
	require.NotNil(t, h.users.created)
	assert.NotEqual(t, "secret123", h.users.created.PasswordHash)
	assert.NotContains(t, rec.Body.String(), "secret123")
}

func TestDownloadSetsAttachmentHeaders(t *testing.T) {
	h := newHarness()
	h.assets.object = assets.Object{ID: "f/1", Name: "resume_Jane Doe", ContentType: "application/pdf", Size: 4}
	h.assets.content = "%PDF"
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/download-file/f/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="resume_Jane Doe.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", rec.Body.String())
}

func TestDownloadMissingAsset(t *testing.T) {
	h := newHarness()
	h.assets.downloadErr = apperr.Newf(apperr.NotFound, "asset not found")
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/download-file/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignedDownloads(t *testing.T) {
	h := newHarness()
	h.cfg.SignedDownloads = true
	h.assets.object = assets.Object{ID: "f/1", Name: "doc.pdf", ContentType: "application/pdf"}
	h.assets.content = "%PDF"

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/download-file/f/1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/file-link/f/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var link struct {
		URL string `json:"url"`
	}
	decode(t, rec, &link)
	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "/api/download-file/f/1", u.Path)

	rec = h.do(httptest.NewRequest(http.MethodGet, link.URL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=doc.pdf`, rec.Header().Get("Content-Disposition"))
}

func TestFileLinkLeavesNoOpenStream(t *testing.T) {
	h := newHarness()
	h.assets.object = assets.Object{ID: "f/1", Name: "doc.pdf", ContentType: "application/pdf"}
	h.assets.content = "%PDF"

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/file-link/f/1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, rc := range h.assets.streams {
		assert.True(t, rc.closed, "file-link left a content stream open")
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/download-file/f/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF", rec.Body.String())
	require.NotEmpty(t, h.assets.streams)
	for _, rc := range h.assets.streams {
		assert.True(t, rc.closed, "download left its content stream open")
	}
}

func TestFileLinkUnknownAsset(t *testing.T) {
	h := newHarness()
	h.assets.downloadErr = apperr.Newf(apperr.NotFound, "object not found")

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/file-link/f/404", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, h.assets.streams)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "cv.pdf", downloadName("cv.pdf", "application/pdf"))
	assert.Equal(t, "profile_Jane.jpg", downloadName("profile_Jane", "image/jpeg"))
	assert.Equal(t, "file.bin", downloadName("", "application/x-unknown"))
}
