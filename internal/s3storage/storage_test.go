package s3storage

import (
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "users/", prefixOf("users"))
	assert.Equal(t, "users/", prefixOf("users/"))
	assert.Equal(t, "", prefixOf(""))
	assert.Equal(t, "users/abc/.folder", markerKey("users/abc"))

	id := childID("users/abc")
	assert.Regexp(t, `^users/abc/[0-9a-f-]{36}$`, id)
	assert.NotEqual(t, id, childID("users/abc"))

	assert.True(t, isMarker("users/abc/.folder"))
	assert.True(t, isMarker(".folder"))
	assert.False(t, isMarker("users/abc/x.folder"))
	assert.True(t, isPrefix("users/abc/"))
}

func TestNameEncodingRoundTrip(t *testing.T) {
	for _, name := range []string{"cv", "Résumé (1).pdf", "a b&c=d", "profile_Jane Doe"} {
		assert.Equal(t, name, decodeName(encodeName(name)))
	}
	assert.Equal(t, "%zz", decodeName("%zz"))
}

func TestDisplayName(t *testing.T) {
	h := http.Header{}
	h.Set("X-Amz-Meta-Name", encodeName("a (1).png"))
	assert.Equal(t, "a (1).png", displayName(minio.ObjectInfo{Key: "p/x", Metadata: h}))
	assert.Equal(t, "cv", displayName(minio.ObjectInfo{Key: "p/x", UserMetadata: minio.StringMap{"Name": "cv"}}))
	assert.Equal(t, "x", displayName(minio.ObjectInfo{Key: "p/x"}))
}

func TestMapErr(t *testing.T) {
	assert.Nil(t, mapErr(nil))
	assert.True(t, apperr.Is(mapErr(minio.ErrorResponse{Code: "NoSuchKey"}), apperr.NotFound))
	other := minio.ErrorResponse{Code: "AccessDenied"}
	assert.Equal(t, error(other), mapErr(other))
}
