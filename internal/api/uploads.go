package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/assets"
)

const maxFieldSize = 64 << 10

// spooled is one uploaded file parked on the spool filesystem.
type spooled struct {
	fs          afero.Fs
	f           afero.File
	name        string
	contentType string
	size        int64
}

func (sp *spooled) asset() assets.File {
	return assets.File{Name: sp.name, ContentType: sp.contentType, Size: sp.size, Body: sp.f}
}

func (sp *spooled) remove() {
	sp.f.Close()
	_ = sp.fs.Remove(sp.f.Name())
}

// upload is a parsed multipart request.
type upload struct {
	fields map[string]string
	files  []*spooled
}

func (u *upload) cleanup() {
	for _, f := range u.files {
		f.remove()
	}
}

func (u *upload) assets() []assets.File {
	out := make([]assets.File, len(u.files))
	for i, f := range u.files {
		out[i] = f.asset()
	}
	return out
}

// parseUpload streams a multipart body, spooling parts named fileField and
// collecting plain fields. Other file parts are skipped. The caller must
// call cleanup.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, fileField string, maxFiles int) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*(s.cfg.MaxFileSize+1024)+maxFieldSize)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, apperr.New(apperr.ValidationFailed, "expecting multipart form", err)
	}
	up := &upload{fields: map[string]string{}}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return up, nil
		}
		if err != nil {
			up.cleanup()
			return nil, apperr.New(apperr.ValidationFailed, "malformed multipart body", err)
		}
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			part.Close()
			if err != nil {
				up.cleanup()
				return nil, apperr.New(apperr.ValidationFailed, "read form field", err)
			}
			up.fields[part.FormName()] = strings.TrimSpace(string(value))
			continue
		}
		if part.FormName() != fileField {
			part.Close()
			continue
		}
		if len(up.files) == maxFiles {
			part.Close()
			up.cleanup()
			return nil, apperr.Newf(apperr.ValidationFailed, "at most %d %s file(s) allowed", maxFiles, fileField)
		}
		sp, err := spool(s.deps.FS, part, s.cfg.MaxFileSize, s.log)
		part.Close()
		if err != nil {
			up.cleanup()
			return nil, err
		}
		up.files = append(up.files, sp)
	}
}

// spool copies part to a temp file, enforcing limit, and settles its content
// type: the declared type wins unless it is missing or generic, in which case
// the sniffed type is used.
func spool(fs afero.Fs, part *multipart.Part, limit int64, logger *log.Logger) (*spooled, error) {
	f, err := afero.TempFile(fs, "", "hirevault-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	sp := &spooled{fs: fs, f: f, name: part.FileName()}
	n, err := io.Copy(f, io.LimitReader(part, limit+1))
	if err != nil {
		sp.remove()
		return nil, apperr.New(apperr.ValidationFailed, "read upload", err)
	}
	if n > limit {
		sp.remove()
		return nil, apperr.Newf(apperr.ValidationFailed, "file %q exceeds limit (%s)", sp.name, humanize.Bytes(uint64(limit)))
	}
	if n == 0 {
		sp.remove()
		return nil, apperr.Newf(apperr.ValidationFailed, "file %q is empty", sp.name)
	}
	sp.size = n
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		sp.remove()
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}
	sniffed, err := mimetype.DetectReader(f)
	if err != nil {
		sp.remove()
		return nil, fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		sp.remove()
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}
	declared := part.Header.Get("Content-Type")
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	declared = strings.TrimSpace(strings.ToLower(declared))
	sp.contentType = declared
	if declared == "" || declared == "application/octet-stream" {
		sp.contentType = sniffed.String()
		if i := strings.IndexByte(sp.contentType, ';'); i >= 0 {
			sp.contentType = sp.contentType[:i]
		}
	}
	logger.Debug("upload spooled", "name", sp.name, "size", humanize.Bytes(uint64(n)), "declared", declared, "sniffed", sniffed.String())
	return sp, nil
}
