package naming

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeReturnsFreeCandidateUnchanged(t *testing.T) {
	existing := NewSet([]string{"a.pdf"})
	assert.Equal(t, "b.pdf", Dedupe("b.pdf", existing))
	assert.Equal(t, "b.pdf", Dedupe("b.pdf", nil))
}

func TestDedupeProbesCounter(t *testing.T) {
	existing := NewSet([]string{"cv.pdf", "cv (1).pdf", "cv (2).pdf"})
	assert.Equal(t, "cv (3).pdf", Dedupe("cv.pdf", existing))
}

func TestDedupeSplitsOnFinalExtension(t *testing.T) {
	existing := NewSet([]string{"site.backup.tar.gz"})
	assert.Equal(t, "site.backup.tar (1).gz", Dedupe("site.backup.tar.gz", existing))
}

func TestDedupeWithoutExtension(t *testing.T) {
	existing := NewSet([]string{"README", ".env"})
	assert.Equal(t, "README (1)", Dedupe("README", existing))
	assert.Equal(t, ".env (1)", Dedupe(".env", existing))
}

func TestDedupeDoesNotMutateInput(t *testing.T) {
	existing := NewSet([]string{"x.png"})
	Dedupe("x.png", existing)
	assert.Len(t, existing, 1)
}

func TestClaimNeverReusesNames(t *testing.T) {
	set := NewSet([]string{"photo.jpg"})
	got := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := set.Claim("photo.jpg")
		assert.False(t, got[name], name)
		got[name] = true
	}
	assert.True(t, got["photo (1).jpg"])
	assert.True(t, got["photo (50).jpg"])
}

func TestDedupeResultNeverInExistingSet(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	stems := []string{"a", "b.txt", "c (1).txt", "d.tar.gz", "e."}
	for round := 0; round < 200; round++ {
		existing := map[string]struct{}{}
		for i := rng.Intn(6); i > 0; i-- {
			stem := stems[rng.Intn(len(stems))]
			existing[stem] = struct{}{}
			existing[Dedupe(stem, existing)] = struct{}{}
		}
		candidate := stems[rng.Intn(len(stems))]
		name := Dedupe(candidate, existing)
		_, taken := existing[name]
		assert.False(t, taken, fmt.Sprintf("round %d: %q", round, name))
		if _, was := existing[candidate]; !was {
			assert.Equal(t, candidate, name)
		}
	}
}
