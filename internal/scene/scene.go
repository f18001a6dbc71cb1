package scene

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Scene tracks whether the environment that owns live item trees is still
// loaded. Once unloaded it stays unloaded.
type Scene struct {
	name   string
	loaded atomic.Bool
}

func New(name string) *Scene {
	s := &Scene{name: name}
	s.loaded.Store(true)
	return s
}

func (s *Scene) Name() string   { return s.name }
func (s *Scene) Loaded() bool   { return s.loaded.Load() }
func (s *Scene) String() string { return s.name }

// Unload marks the scene as gone. It reports whether this call performed the
// transition.
func (s *Scene) Unload() bool {
	if !s.loaded.CompareAndSwap(true, false) {
		return false
	}
	slog.Info("scene unloaded", "scene", s.name)
	return true
}

// Modes holds the current play mode.
type Modes struct {
	current string
	version uint64

	mu sync.RWMutex
}

func NewModes(initial string) *Modes {
	return &Modes{current: initial}
}

func (m *Modes) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set switches the play mode. Setting the same mode again is a no-op.
func (m *Modes) Set(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mode == m.current {
		return
	}
	slog.Info("play mode changed", "from", m.current, "to", mode)
	m.current = mode
	m.version++
}

func (m *Modes) snapshot() (string, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.version
}

// Guard captures the scene and play mode at the moment it is created. It
// stops being valid once the scene unloads or the mode changes, even if the
// mode later changes back.
type Guard struct {
	scene   *Scene
	modes   *Modes
	mode    string
	version uint64
}

// NewGuard captures the current state. Either argument may be nil.
func NewGuard(s *Scene, m *Modes) *Guard {
	g := &Guard{scene: s, modes: m}
	if m != nil {
		g.mode, g.version = m.snapshot()
	}
	return g
}

// Mode returns the play mode captured at creation.
func (g *Guard) Mode() string { return g.mode }

func (g *Guard) Valid() bool {
	if g.scene != nil && !g.scene.Loaded() {
		return false
	}
	if g.modes != nil {
		_, v := g.modes.snapshot()
		if v != g.version {
			return false
		}
	}
	return true
}
