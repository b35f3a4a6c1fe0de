package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"spyfall/internal/ai"
)

// Default seats of the reference configuration: seven automated
// participants plus the human in the last seat.
var defaultAINames = []string{"Ava", "Noah", "Mia", "Leo", "Zoe", "Eli", "Iris"}

// DefaultSessionConfig is the reference game: 8 participants, 2 spies,
// 3 rounds, a 10 second action window after each round.
func DefaultSessionConfig(humanName string) SessionConfig {
	if humanName == "" {
		humanName = "You"
	}
	names := append(append([]string{}, defaultAINames...), humanName)
	return SessionConfig{
		PlayerNames:  names,
		HumanIndex:   len(names) - 1,
		SpyCount:     2,
		RoundLimit:   3,
		ActionWindow: 10,
		Timed:        true,
	}
}

func validateConfig(cfg SessionConfig) error {
	if len(cfg.PlayerNames) < 3 {
		return fmt.Errorf("%w: need at least 3 participants, got %d", ErrBadConfig, len(cfg.PlayerNames))
	}
	seen := make(map[string]bool, len(cfg.PlayerNames))
	for _, name := range cfg.PlayerNames {
		if name == "" {
			return fmt.Errorf("%w: empty participant name", ErrBadConfig)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate participant name %q", ErrBadConfig, name)
		}
		seen[name] = true
	}
	if cfg.HumanIndex < 0 || cfg.HumanIndex >= len(cfg.PlayerNames) {
		return fmt.Errorf("%w: human index %d out of range", ErrBadConfig, cfg.HumanIndex)
	}
	if cfg.SpyCount < 1 || cfg.SpyCount >= len(cfg.PlayerNames) {
		return fmt.Errorf("%w: spy count %d out of range", ErrBadConfig, cfg.SpyCount)
	}
	if cfg.Timed {
		if cfg.RoundLimit < 1 {
			return fmt.Errorf("%w: timed games need a round limit", ErrBadConfig)
		}
		if cfg.ActionWindow < 1 {
			return fmt.Errorf("%w: timed games need an action window duration", ErrBadConfig)
		}
	}
	return nil
}

// Manager owns the sessions. Sessions are independent; creating a new
// one replaces the active session (the restart flow) while older ones
// stay retrievable by code.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   string
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) CreateSession(cfg SessionConfig, provider ai.Provider) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code := randomCode(5)
	for m.sessions[code] != nil {
		code = randomCode(5)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := newSession(code, cfg, provider, rng)
	m.sessions[code] = s
	m.active = code
	return s, nil
}

func (m *Manager) Get(code string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Active() (string, *Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return "", nil
	}
	return m.active, m.sessions[m.active]
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
