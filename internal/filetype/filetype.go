// Package filetype maps content types to a semantic category and a canonical
// file extension.
package filetype

import "github.com/dharsanguruparan/hirevault/internal/model"

// Info is the classification of one content type. MimeType echoes the input
// unchanged, including when it is unrecognised.
type Info struct {
	Category  model.FileCategory `json:"category"`
	MimeType  string             `json:"mimeType"`
	Extension string             `json:"extension"`
}

// DefaultExtension is returned for content types missing from the extension table.
const DefaultExtension = "bin"

var categories = map[model.FileCategory][]string{
	model.CategoryImage: {
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/bmp",
		"image/webp",
		"image/svg+xml",
		"image/tiff",
		"image/x-icon",
		"image/heic",
		"image/vnd.adobe.photoshop",
	},
	model.CategoryDocument: {
		"application/pdf",
		"text/plain",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
		"application/postscript",
		"application/illustrator",
		"application/vnd.adobe.indesign-idml",
		"application/x-indesign",
		"application/x-fdf",
		"application/vnd.adobe.xdp+xml",
	},
	model.CategoryMusic: {
		"audio/mpeg",
		"audio/mp3",
		"audio/wav",
		"audio/aac",
		"audio/flac",
		"audio/ogg",
		"audio/mp4",
		"audio/x-ms-wma",
		"audio/x-midi",
		"audio/webm",
	},
	model.CategoryVideo: {
		"video/mp4",
		"video/x-matroska",
		"video/x-msvideo",
		"video/quicktime",
		"video/webm",
		"video/x-ms-wmv",
		"video/x-flv",
		"video/mpeg",
		"video/3gpp",
		"video/x-ms-asf",
		"application/x-premiere-project",
		"application/x-vegas-project",
	},
}

var extensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"application/pdf": "pdf",
	"text/plain":      "txt",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       "xlsx",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/zip":           "zip",
	"application/illustrator":   "ai",
	"image/vnd.adobe.photoshop": "psd",
}

// byType inverts categories once at init.
var byType = func() map[string]model.FileCategory {
	out := make(map[string]model.FileCategory)
	for cat, types := range categories {
		for _, t := range types {
			out[t] = cat
		}
	}
	return out
}()

// Classify never fails: unknown input yields CategoryUnknown and DefaultExtension.
func Classify(contentType string) Info {
	return Info{
		Category:  Category(contentType),
		MimeType:  contentType,
		Extension: Extension(contentType),
	}
}

// Category returns the semantic category of contentType.
func Category(contentType string) model.FileCategory {
	if cat, ok := byType[contentType]; ok {
		return cat
	}
	return model.CategoryUnknown
}

// Extension returns the canonical extension for contentType, without a dot.
func Extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return DefaultExtension
}

// Types lists every content type with a known category.
func Types() []string {
	out := make([]string, 0, len(byType))
	for t := range byType {
		out = append(out, t)
	}
	return out
}
