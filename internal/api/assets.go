package api

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/filetype"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/signing"
)

const maxBatchFiles = 20

func (s *Server) assetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload-resume", s.singleUpload(model.SlotResume, "Resume"))
	mux.HandleFunc("POST /api/upload-profile", s.singleUpload(model.SlotProfile, "Profile"))
	mux.HandleFunc("POST /api/upload-portfolio", s.handleUploadPortfolio)
	mux.HandleFunc("POST /api/upload-files", s.handleUploadChatFiles)
	mux.HandleFunc("POST /api/delete-portfolio", s.handleDeletePortfolio)
	mux.HandleFunc("GET /api/download-file/{id...}", s.handleDownload)
	mux.HandleFunc("GET /api/file-link/{id...}", s.handleFileLink)
}

// singleUpload serves the profile and resume endpoints. The form carries the
// owner in "id" and the file under the slot name.
func (s *Server) singleUpload(slot model.Slot, label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, err := s.parseUpload(w, r, string(slot), 1)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		defer up.cleanup()
		ownerID := up.fields["id"]
		if ownerID == "" {
			s.badRequest(w, r, "Missing user id.")
			return
		}
		if len(up.files) == 0 {
			s.badRequest(w, r, "No "+string(slot)+" file provided.")
			return
		}
		res, err := s.deps.Assets.ReplaceSingleAsset(r.Context(), ownerID, slot, up.files[0].asset())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    label + " uploaded and user updated successfully",
			"file":       res.Asset,
			"superseded": res.Superseded.Outcome.String(),
		})
	}
}

func (s *Server) handleUploadPortfolio(w http.ResponseWriter, r *http.Request) {
	up, err := s.parseUpload(w, r, "portfolio", maxBatchFiles)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer up.cleanup()
	ownerID := up.fields["id"]
	if ownerID == "" {
		s.badRequest(w, r, "Missing user id.")
		return
	}
	refs, err := s.deps.Assets.AppendPortfolioAssets(r.Context(), ownerID, up.assets())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Portfolio files uploaded successfully",
		"files":   refs,
	})
}

func (s *Server) handleUploadChatFiles(w http.ResponseWriter, r *http.Request) {
	up, err := s.parseUpload(w, r, "files", maxBatchFiles)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer up.cleanup()
	userID, collaboratorID := up.fields["userId"], up.fields["collaboratorId"]
	if userID == "" || collaboratorID == "" {
		s.badRequest(w, r, "userId and collaboratorId are required.")
		return
	}
	msg, err := s.deps.Assets.AppendChatAttachment(r.Context(), collaboratorID, userID, up.assets())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Files uploaded and chat updated successfully",
		"files":   msg.Entries,
	})
}

type deletePortfolioInput struct {
	ID      string   `json:"id"`
	FileIDs []string `json:"fileIds"`
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	var in deletePortfolioInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.ID == "" {
		s.badRequest(w, r, "Missing user id.")
		return
	}
	cleanups, err := s.deps.Assets.RemovePortfolioAssets(r.Context(), in.ID, in.FileIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	removed := make([]map[string]string, 0, len(cleanups))
	for _, c := range cleanups {
		removed = append(removed, map[string]string{"id": c.AssetID, "outcome": c.Outcome.String()})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Portfolio files deleted successfully",
		"removed": removed,
	})
}

// handleDownload streams an asset as an attachment. With signed downloads
// enabled the request must carry a valid link signature.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.cfg.SignedDownloads && s.deps.Signer != nil {
		q := r.URL.Query()
		if !s.deps.Signer.Validate(id, q.Get(signing.ParamExpires), q.Get(signing.ParamSignature)) {
			respondJSON(w, http.StatusUnauthorized, errorBody{Message: "Invalid or expired download link."})
			return
		}
	}
	obj, rc, err := s.deps.Assets.DownloadAsset(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadName(obj.Name, contentType),
	}))
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if n, err := io.Copy(w, rc); err != nil {
		s.log.Warn("download interrupted", "asset", id, "sent", n, "err", err)
	}
}

// handleFileLink issues a time-limited download URL for an asset.
func (s *Server) handleFileLink(w http.ResponseWriter, r *http.Request) {
	if s.deps.Signer == nil {
		s.writeError(w, r, apperr.Newf(apperr.NotConfigured, "signed links are not configured"))
		return
	}
	id := r.PathValue("id")
	if _, err := s.deps.Assets.StatAsset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, expires := s.deps.Signer.Query(id)
	link := url.URL{Path: "/api/download-file/" + id, RawQuery: q.Encode()}
	respondJSON(w, http.StatusOK, map[string]any{"url": link.String(), "expiresAt": expires})
}

// downloadName appends the canonical extension when the stored name lacks one.
func downloadName(name, contentType string) string {
	if name == "" {
		name = "file"
	}
	ext := filetype.Extension(contentType)
	if strings.HasSuffix(strings.ToLower(name), "."+ext) {
		return name
	}
	return name + "." + ext
}
