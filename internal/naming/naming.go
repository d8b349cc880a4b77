// Package naming picks collision-free object names inside a folder.
package naming

import (
	"fmt"
	"strings"
)

// Dedupe returns candidate if it is not in existing, otherwise the first
// "{base} ({n}).{ext}" for n = 1, 2, ... that is free. Names without an
// extension become "{name} ({n})". existing is only read; callers add the
// returned name themselves before deduping the next file of a batch.
func Dedupe(candidate string, existing map[string]struct{}) string {
	if _, taken := existing[candidate]; !taken {
		return candidate
	}
	base, ext := split(candidate)
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, taken := existing[name]; !taken {
			return name
		}
	}
}

// split separates the final extension, keeping its dot. Leading-dot names
// such as ".env" have no extension.
func split(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Set tracks the names already present in a folder during a batch upload.
type Set map[string]struct{}

// NewSet seeds a Set with names.
func NewSet(names []string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Claim dedupes candidate against the set and records the result.
func (s Set) Claim(candidate string) string {
	name := Dedupe(candidate, s)
	s[name] = struct{}{}
	return name
}
