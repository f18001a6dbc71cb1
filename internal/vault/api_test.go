package vault

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-itemtree/internal/messaging"
	"github.com/pixil98/go-itemtree/internal/scene"
	"github.com/pixil98/go-testutil"
)

type apiHarness struct {
	t      *testing.T
	server *messaging.NatsServer
	svc    *Service
}

func startAPI(t *testing.T) *apiHarness {
	t.Helper()

	server, err := messaging.NewNatsServer(messaging.WithPort(-1))
	if err != nil {
		t.Fatalf("unexpected error creating server: %v", err)
	}
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	svc := NewService(newCatalog(t), store, scene.New("range"),
		WithServer(server),
		WithSubjectPrefix("test.vault"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	svcDone := make(chan error, 1)
	go func() { serverDone <- server.Start(ctx) }()
	go func() { svcDone <- svc.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-svcDone
		<-serverDone
	})

	h := &apiHarness{t: t, server: server, svc: svc}
	h.waitServing()
	return h
}

// waitServing polls the list subject until the service has subscribed.
func (h *apiHarness) waitServing() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.server.WaitReady(ctx); err != nil {
		h.t.Fatalf("nats server not ready: %v", err)
	}
	for {
		reqCtx, reqCancel := context.WithTimeout(ctx, 200*time.Millisecond)
		_, err := h.server.Request(reqCtx, h.svc.Subject("list"), nil)
		reqCancel()
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			h.t.Fatalf("vault never started serving: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func (h *apiHarness) call(op string, req any) (Reply, error) {
	h.t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		h.t.Fatalf("marshalling request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := h.server.Request(ctx, h.svc.Subject(op), data)
	if err != nil {
		h.t.Fatalf("requesting %s: %v", op, err)
	}
	if err := messaging.ReplyError(resp); err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := json.Unmarshal(resp, &reply); err != nil {
		h.t.Fatalf("decoding reply: %v", err)
	}
	return reply, nil
}

func (h *apiHarness) mustCall(op string, req any) Reply {
	h.t.Helper()
	reply, err := h.call(op, req)
	if err != nil {
		h.t.Fatalf("%s: %v", op, err)
	}
	return reply
}

func TestAPI_RoundTrip(t *testing.T) {
	h := startAPI(t)

	created := h.mustCall("create", CreateRequest{TypeID: typeBackpack})
	id := created.TreeID
	if id == "" {
		t.Fatal("expected a tree id")
	}

	rifle := h.mustCall("attach", AttachRequest{TreeID: id, Position: 1, TypeID: typeRifle})
	h.mustCall("attach", AttachRequest{TreeID: id, ParentID: rifle.InstanceID, Slot: "optic", TypeID: typeScope})

	buffed := h.mustCall("effect", map[string]any{
		"tree_id":     id,
		"instance_id": rifle.InstanceID,
		"stat":        "damage",
		"kind":        "add",
		"value":       5,
		"ticks":       3,
	})
	if buffed.Value == nil {
		t.Fatal("expected stat value in reply")
	}
	testutil.AssertEqual(t, "damage", *buffed.Value, 15.0)

	before := h.mustCall("dump", TreeRequest{TreeID: id})
	testutil.AssertEqual(t, "entries", len(before.Tree.Entries), 3)
	if !strings.Contains(before.Dump, "- instance 3 type 3") {
		t.Errorf("dump missing scope entry:\n%s", before.Dump)
	}

	h.mustCall("save", TreeRequest{TreeID: id})
	h.mustCall("release", TreeRequest{TreeID: id})
	listed := h.mustCall("list", struct{}{})
	testutil.AssertEqual(t, "stored", listed.IDs, []string{id})

	h.mustCall("load", TreeRequest{TreeID: id})
	after := h.mustCall("dump", TreeRequest{TreeID: id})
	testutil.AssertEqual(t, "restored", mustJSON(t, after.Tree), mustJSON(t, before.Tree))
}

func TestAPI_Errors(t *testing.T) {
	h := startAPI(t)

	tests := map[string]struct {
		op     string
		req    any
		expErr string
	}{
		"unknown type": {
			op:     "create",
			req:    CreateRequest{TypeID: 404},
			expErr: "unknown item type",
		},
		"unknown tree": {
			op:     "save",
			req:    TreeRequest{TreeID: "nope"},
			expErr: "no live tree",
		},
		"missing record": {
			op:     "load",
			req:    TreeRequest{TreeID: "nope"},
			expErr: "record not found",
		},
		"bad kind": {
			op:     "effect",
			req:    map[string]any{"tree_id": "x", "stat": "damage", "kind": "double"},
			expErr: "unknown modifier kind",
		},
		"missing kind": {
			op:     "effect",
			req:    map[string]any{"tree_id": "x", "stat": "damage"},
			expErr: "unknown modifier kind",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := h.call(tt.op, tt.req)
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestAPI_Mode(t *testing.T) {
	h := startAPI(t)

	current := h.mustCall("mode", ModeRequest{})
	testutil.AssertEqual(t, "default", current.Mode, DefaultPlayMode)

	switched := h.mustCall("mode", ModeRequest{Mode: "raid"})
	testutil.AssertEqual(t, "switched", switched.Mode, "raid")
	testutil.AssertEqual(t, "service", h.svc.Modes().Current(), "raid")
}
