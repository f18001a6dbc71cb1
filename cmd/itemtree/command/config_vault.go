package command

import (
	"fmt"
	"regexp"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-itemtree/internal/messaging"
	"github.com/pixil98/go-itemtree/internal/scene"
	"github.com/pixil98/go-itemtree/internal/snapshot"
	"github.com/pixil98/go-itemtree/internal/vault"
)

var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*$`)

type VaultConfig struct {
	Scene         string `json:"scene"`
	SubjectPrefix string `json:"subject_prefix"`
	EventSubject  string `json:"event_subject"`
	PlayMode      string `json:"play_mode"`
}

func (c *VaultConfig) Validate() error {
	el := errors.NewErrorList()

	if c.SubjectPrefix != "" && !subjectPattern.MatchString(c.SubjectPrefix) {
		el.Add(fmt.Errorf("subject_prefix %q is not a valid subject", c.SubjectPrefix))
	}
	if c.EventSubject != "" && !subjectPattern.MatchString(c.EventSubject) {
		el.Add(fmt.Errorf("event_subject %q is not a valid subject", c.EventSubject))
	}

	return el.Err()
}

func (c *VaultConfig) BuildService(cat snapshot.Instantiator, store vault.Store, server *messaging.NatsServer) *vault.Service {
	name := c.Scene
	if name == "" {
		name = "default"
	}
	mode := c.PlayMode
	if mode == "" {
		mode = vault.DefaultPlayMode
	}

	opts := []vault.ServiceOpt{
		vault.WithServer(server),
		vault.WithModes(scene.NewModes(mode)),
	}
	if c.SubjectPrefix != "" {
		opts = append(opts, vault.WithSubjectPrefix(c.SubjectPrefix))
	}
	if c.EventSubject != "" {
		opts = append(opts, vault.WithEvents(messaging.NewEventPublisher(server, c.EventSubject)))
	}

	return vault.NewService(cat, store, scene.New(name), opts...)
}
