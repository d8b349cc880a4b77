package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrappedChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("upload resume: %w", New(StoreUnavailable, "asset store unavailable", cause))

	assert.Equal(t, StoreUnavailable, KindOf(err))
	assert.True(t, Is(err, StoreUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, Internal))
}

func TestDuplicateCarriesFieldAndValue(t *testing.T) {
	err := Duplicate("email", "a@b.c", nil)
	assert.Equal(t, DuplicateField, err.Kind)
	assert.Equal(t, "email", err.Field)
	assert.Equal(t, "a@b.c", err.Value)
	assert.Equal(t, "Duplicate field value. This value already exists.", err.Error())
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		NotFound:         http.StatusNotFound,
		ValidationFailed: http.StatusBadRequest,
		DuplicateField:   http.StatusBadRequest,
		NotConfigured:    http.StatusBadRequest,
		StoreUnavailable: http.StatusInternalServerError,
		Internal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind), string(kind))
	}
}
