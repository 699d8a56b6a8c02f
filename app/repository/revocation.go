package repository

import "sync"

// RevocationList tracks revoked token jtis per token type. Sets are
// grow-only for the process lifetime; expired entries are never pruned, which
// is a memory concern but not a correctness one.
type RevocationList struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

func NewRevocationList(tokenTypes ...string) *RevocationList {
	sets := make(map[string]map[string]struct{}, len(tokenTypes))
	for _, t := range tokenTypes {
		sets[t] = make(map[string]struct{})
	}
	return &RevocationList{sets: sets}
}

// MarkRevoked inserts the jti into the set for the given token type and
// reports whether it was already present. The check-and-set is atomic so two
// concurrent rotations of the same refresh token cannot both succeed.
func (r *RevocationList) MarkRevoked(tokenType, jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[tokenType]
	if !ok {
		set = make(map[string]struct{})
		r.sets[tokenType] = set
	}

	if _, present := set[jti]; present {
		return true
	}
	set[jti] = struct{}{}
	return false
}

func (r *RevocationList) IsRevoked(tokenType, jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[tokenType]
	if !ok {
		return false
	}
	_, present := set[jti]
	return present
}
