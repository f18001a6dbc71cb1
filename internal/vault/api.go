package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-itemtree/internal/messaging"
	"github.com/pixil98/go-itemtree/internal/snapshot"
	"github.com/pixil98/go-itemtree/internal/stat"
)

type CreateRequest struct {
	TypeID item.TypeID `json:"type_id"`
}

type TreeRequest struct {
	TreeID string `json:"tree_id"`
}

type AttachRequest struct {
	TreeID   string          `json:"tree_id"`
	ParentID item.InstanceID `json:"parent_instance_id,omitempty"`
	Slot     string          `json:"slot,omitempty"`
	Position int             `json:"position,omitempty"`
	TypeID   item.TypeID     `json:"type_id"`
}

type EffectRequest struct {
	TreeID     string          `json:"tree_id"`
	InstanceID item.InstanceID `json:"instance_id,omitempty"`
	Stat       string          `json:"stat"`
	Kind       stat.Kind       `json:"kind"`
	Value      float64         `json:"value"`
	Ticks      int             `json:"ticks"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

// Reply is the body of every successful response. Only the fields relevant
// to the request are set.
type Reply struct {
	TreeID     string          `json:"tree_id,omitempty"`
	InstanceID item.InstanceID `json:"instance_id,omitempty"`
	Value      *float64        `json:"value,omitempty"`
	Tree       *snapshot.Tree  `json:"tree,omitempty"`
	Dump       string          `json:"dump,omitempty"`
	IDs        []string        `json:"ids,omitempty"`
	Mode       string          `json:"mode,omitempty"`
}

// Subject returns the request subject for op.
func (s *Service) Subject(op string) string {
	return fmt.Sprintf("%s.%s", s.prefix, op)
}

func (s *Service) handlers() map[string]messaging.Handler {
	return map[string]messaging.Handler{
		"create":  handle(s.handleCreate),
		"save":    handle(s.handleSave),
		"load":    handle(s.handleLoad),
		"release": handle(s.handleRelease),
		"attach":  handle(s.handleAttach),
		"effect":  handle(s.handleEffect),
		"dump":    handle(s.handleDump),
		"list":    handle(func(ctx context.Context, _ struct{}) (Reply, error) { return s.handleList(ctx) }),
		"mode":    handle(s.handleMode),
	}
}

// handle adapts a typed handler to a messaging.Handler. An empty request
// body decodes as the zero request.
func handle[Req any](fn func(context.Context, Req) (Reply, error)) messaging.Handler {
	return func(ctx context.Context, data []byte) ([]byte, error) {
		var req Req
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, fmt.Errorf("decoding request: %w", err)
			}
		}

		reply, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(reply)
	}
}

func (s *Service) handleCreate(ctx context.Context, req CreateRequest) (Reply, error) {
	id, err := s.Create(ctx, req.TypeID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{TreeID: id}, nil
}

func (s *Service) handleSave(ctx context.Context, req TreeRequest) (Reply, error) {
	if err := s.Save(ctx, req.TreeID); err != nil {
		return Reply{}, err
	}
	return Reply{TreeID: req.TreeID}, nil
}

func (s *Service) handleLoad(ctx context.Context, req TreeRequest) (Reply, error) {
	root, err := s.Load(ctx, req.TreeID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{TreeID: req.TreeID, InstanceID: root.ID()}, nil
}

func (s *Service) handleRelease(_ context.Context, req TreeRequest) (Reply, error) {
	if !s.Release(req.TreeID) {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownTree, req.TreeID)
	}
	return Reply{TreeID: req.TreeID}, nil
}

func (s *Service) handleAttach(ctx context.Context, req AttachRequest) (Reply, error) {
	it, err := s.Attach(ctx, req.TreeID, req.ParentID, req.Slot, req.Position, req.TypeID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{TreeID: req.TreeID, InstanceID: it.ID()}, nil
}

func (s *Service) handleEffect(_ context.Context, req EffectRequest) (Reply, error) {
	if _, err := req.Kind.MarshalText(); err != nil {
		return Reply{}, err
	}

	e, err := s.ApplyEffect(req.TreeID, req.InstanceID, req.Stat, req.Kind, req.Value, req.Ticks)
	if err != nil {
		return Reply{}, err
	}

	s.mu.Lock()
	v, _ := e.Target().Stats().Value(req.Stat)
	s.mu.Unlock()

	return Reply{TreeID: req.TreeID, InstanceID: e.Target().ID(), Value: &v}, nil
}

func (s *Service) handleDump(_ context.Context, req TreeRequest) (Reply, error) {
	t, err := s.Snapshot(req.TreeID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{TreeID: req.TreeID, Tree: t, Dump: snapshot.Dump(t)}, nil
}

func (s *Service) handleList(ctx context.Context) (Reply, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{IDs: ids}, nil
}

func (s *Service) handleMode(_ context.Context, req ModeRequest) (Reply, error) {
	if req.Mode != "" {
		s.modes.Set(req.Mode)
	}
	return Reply{Mode: s.modes.Current()}, nil
}

// Start serves the request subjects until ctx ends, then shuts the service
// down. Without a server it only waits for ctx.
func (s *Service) Start(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.WaitReady(ctx); err != nil {
			s.Shutdown()
			return nil
		}

		for op, h := range s.handlers() {
			unsub, err := s.server.Handle(ctx, s.Subject(op), h)
			if err != nil {
				s.Shutdown()
				return fmt.Errorf("subscribing %s: %w", s.Subject(op), err)
			}
			defer unsub()
		}
		slog.InfoContext(ctx, "vault serving", "prefix", s.prefix, "scene", s.scene.Name())
	}

	<-ctx.Done()
	s.Shutdown()
	return nil
}
