// Package legal records per-user terms-of-service acceptance in the local
// persistent cache.
package legal

import (
	"fmt"
	"time"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/localcache"
)

// Acceptance is one user's recorded agreement to a terms version.
type Acceptance struct {
	Version    string    `json:"version"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// Service tracks terms acceptance. Acceptance is device-local; signing in on
// a new device asks again, which is the conservative choice for consent.
type Service struct {
	cache   *localcache.Cache
	version string
	now     func() time.Time
}

func NewService(cache *localcache.Cache, version string) *Service {
	return &Service{cache: cache, version: version, now: time.Now}
}

func key(userID string) string {
	return "terms_accepted_" + userID
}

// Accept records that the user accepted the current terms version.
func (s *Service) Accept(userID string) error {
	if userID == "" {
		return fmt.Errorf("recording terms acceptance: empty user id")
	}
	return s.cache.Set(key(userID), Acceptance{
		Version:    s.version,
		AcceptedAt: s.now().UTC(),
	})
}

// HasAccepted reports whether the user has accepted the current terms
// version. An acceptance of an older version does not count.
func (s *Service) HasAccepted(userID string) (bool, error) {
	var a Acceptance
	found, err := s.cache.Get(key(userID), &a)
	if err != nil {
		return false, err
	}
	return found && a.Version == s.version, nil
}

// Accepted returns the recorded acceptance, or nil when absent.
func (s *Service) Accepted(userID string) (*Acceptance, error) {
	var a Acceptance
	found, err := s.cache.Get(key(userID), &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}
