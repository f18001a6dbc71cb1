package vault

import (
	"github.com/pixil98/go-itemtree/internal/effects"
	"github.com/pixil98/go-itemtree/internal/messaging"
	"github.com/pixil98/go-itemtree/internal/scene"
)

const (
	DefaultSubjectPrefix = "itemtree.vault"
	DefaultPlayMode      = "default"
)

type ServiceOpt func(*Service)

// WithModes shares a play mode holder; restores abort when it changes.
func WithModes(m *scene.Modes) ServiceOpt {
	return func(s *Service) {
		s.modes = m
	}
}

func WithEffects(m *effects.Manager) ServiceOpt {
	return func(s *Service) {
		s.effects = m
	}
}

// WithEvents publishes the events of every live tree.
func WithEvents(p *messaging.EventPublisher) ServiceOpt {
	return func(s *Service) {
		s.events = p
	}
}

// WithServer exposes the service as request/reply subjects on the server.
func WithServer(n *messaging.NatsServer) ServiceOpt {
	return func(s *Service) {
		s.server = n
	}
}

// WithSubjectPrefix sets the prefix of the request subjects.
func WithSubjectPrefix(prefix string) ServiceOpt {
	return func(s *Service) {
		s.prefix = prefix
	}
}
