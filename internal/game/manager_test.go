package game

import (
	"errors"
	"testing"
)

func TestCreateAndGetSession(t *testing.T) {
	m := NewManager()
	provider := &scriptedProvider{}

	s, err := m.CreateSession(DefaultSessionConfig("Riley"), provider)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if len(s.Code) != 5 {
		t.Fatalf("expected a 5 character code, got %q", s.Code)
	}
	if s.HumanToken == "" {
		t.Fatal("expected a human token")
	}

	got, err := m.Get(s.Code)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != s {
		t.Fatal("Get returned a different session")
	}

	if _, err := m.Get("NOPE!"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestActiveSessionTracksLatest(t *testing.T) {
	m := NewManager()
	provider := &scriptedProvider{}

	if code, s := m.Active(); code != "" || s != nil {
		t.Fatal("a fresh manager has no active session")
	}

	first, _ := m.CreateSession(DefaultSessionConfig("Riley"), provider)
	second, _ := m.CreateSession(DefaultSessionConfig("Riley"), provider)

	code, active := m.Active()
	if code != second.Code || active != second {
		t.Fatalf("expected the newest session %s to be active, got %s", second.Code, code)
	}

	// the restart flow keeps the replaced session reachable by code
	if _, err := m.Get(first.Code); err != nil {
		t.Fatalf("replaced session should stay retrievable: %v", err)
	}
	if m.Count() != 2 {
		t.Fatalf("expected 2 sessions, got %d", m.Count())
	}
}

func TestValidateConfigRejections(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*SessionConfig)
	}{
		{"too few players", func(c *SessionConfig) { c.PlayerNames = []string{"A", "B"} }},
		{"duplicate names", func(c *SessionConfig) { c.PlayerNames[0] = c.PlayerNames[1] }},
		{"empty name", func(c *SessionConfig) { c.PlayerNames[0] = "" }},
		{"human index out of range", func(c *SessionConfig) { c.HumanIndex = len(c.PlayerNames) }},
		{"no spies", func(c *SessionConfig) { c.SpyCount = 0 }},
		{"all spies", func(c *SessionConfig) { c.SpyCount = len(c.PlayerNames) }},
		{"timed without round limit", func(c *SessionConfig) { c.RoundLimit = 0 }},
		{"timed without window", func(c *SessionConfig) { c.ActionWindow = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultSessionConfig("Riley")
		tc.mod(&cfg)
		if err := validateConfig(cfg); !errors.Is(err, ErrBadConfig) {
			t.Fatalf("%s: expected ErrBadConfig, got %v", tc.name, err)
		}
	}

	// the open configuration needs neither limit nor window
	cfg := DefaultSessionConfig("Riley")
	cfg.Timed = false
	cfg.RoundLimit = 0
	cfg.ActionWindow = 0
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("open config should be valid: %v", err)
	}
}

func TestCreateSessionRejectsBadConfig(t *testing.T) {
	m := NewManager()
	cfg := DefaultSessionConfig("Riley")
	cfg.SpyCount = 99
	if _, err := m.CreateSession(cfg, &scriptedProvider{}); !errors.Is(err, ErrBadConfig) {
		t.Fatalf("expected ErrBadConfig, got %v", err)
	}
	if m.Count() != 0 {
		t.Fatal("a rejected config must not register a session")
	}
}
