package supervisor

import (
	"context"
	"testing"
	"time"

	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/kubetui/kubetui/internal/bus"
	"github.com/kubetui/kubetui/internal/kubeclient"
)

func newTestSupervisor() (*Supervisor, chan bus.Event) {
	ch := make(chan bus.Event, 16)
	sv := &Supervisor{
		sender:  bus.NewSender(ch),
		context: "test",
		pollers: make(map[string]*handle),
		shared:  kubeclient.NewShared([]string{""}),
		state: &kubeclient.ContextState{
			Bundle: &kubeclient.Bundle{Clientset: k8sfake.NewSimpleClientset()},
		},
	}
	return sv, ch
}

func TestHandleAbortIsSafeOnNilHandle(t *testing.T) {
	var h *handle
	h.abort() // must not panic
}

func TestHandleAbortWaitsForDone(t *testing.T) {
	done := make(chan struct{})
	aborted := false
	h := &handle{cancel: func() { aborted = true; close(done) }, done: done}
	h.abort()
	if !aborted {
		t.Fatalf("expected cancel to be invoked")
	}
}

func TestContextSetReturnsNewContextAndDone(t *testing.T) {
	sv, _ := newTestSupervisor()
	newCtx, done := sv.handleRequest(context.Background(), bus.Request{Kind: bus.ReqContextSet, Context: "prod"})
	if !done || newCtx != "prod" {
		t.Fatalf("expected (prod, true), got (%q, %v)", newCtx, done)
	}
}

func TestNamespaceSetAbortsDependentWorkersAndEchoes(t *testing.T) {
	sv, ch := newTestSupervisor()
	aborted := false
	done := make(chan struct{})
	sv.log = &handle{cancel: func() { aborted = true; close(done) }, done: done}

	_, finished := sv.handleRequest(context.Background(), bus.Request{Kind: bus.ReqNamespaceSet, Namespaces: []string{"default"}})
	if finished {
		t.Fatalf("namespace set should not end the dispatch loop")
	}
	if !aborted {
		t.Fatalf("expected log worker to be aborted on namespace change")
	}
	if sv.log != nil {
		t.Fatalf("expected log handle to be cleared after namespace change")
	}

	select {
	case ev := <-ch:
		if ev.Response.Kind != bus.RespNamespaceSet {
			t.Fatalf("expected RespNamespaceSet echo, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a namespace-set response to be sent")
	}
}

func TestApiSetUpdatesSharedResources(t *testing.T) {
	sv, _ := newTestSupervisor()
	apis := []bus.ApiResource{{Group: "apps", Version: "v1", Kind: "Deployment"}}
	sv.handleRequest(context.Background(), bus.Request{Kind: bus.ReqApiSet, Apis: apis})
	if got := sv.shared.Resources(); len(got) != 1 || got[0] != apis[0] {
		t.Fatalf("expected shared resources updated, got %+v", got)
	}
}
