package kubeclient

import (
	"reflect"
	"testing"

	"github.com/kubetui/kubetui/internal/bus"
)

func TestSharedNamespacesRoundTrip(t *testing.T) {
	s := NewShared([]string{""})
	s.SetNamespaces([]string{"default", "kube-system"})
	if got := s.Namespaces(); !reflect.DeepEqual(got, []string{"default", "kube-system"}) {
		t.Fatalf("unexpected namespaces: %v", got)
	}
}

func TestSharedResourcesRoundTrip(t *testing.T) {
	s := NewShared(nil)
	want := []bus.ApiResource{{Group: "apps", Version: "v1", Kind: "Deployment"}}
	s.SetResources(want)
	if got := s.Resources(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected resources: %+v", got)
	}
}

func TestSharedNamespacesReturnsDefensiveCopy(t *testing.T) {
	s := NewShared([]string{"a"})
	got := s.Namespaces()
	got[0] = "mutated"
	if s.Namespaces()[0] != "a" {
		t.Fatalf("Namespaces() must return a copy, internal state was mutated")
	}
}

func TestStoreGetFailsOnUnresolvableContext(t *testing.T) {
	store := NewStore("/nonexistent/kubeconfig/path")
	if _, err := store.Get("missing-context"); err == nil {
		t.Fatalf("expected error connecting with a nonexistent kubeconfig")
	}
}

func TestStorePutThenGetRestoresNamespaceSelection(t *testing.T) {
	store := NewStore("")
	narrowed := &ContextState{Namespaces: []string{"prod", "staging"}}
	store.Put("switched-away", narrowed)

	got, err := store.Get("switched-away")
	if err != nil {
		t.Fatalf("Get after Put: %v", err)
	}
	if !reflect.DeepEqual(got.Namespaces, []string{"prod", "staging"}) {
		t.Fatalf("expected restored namespace selection, got %v", got.Namespaces)
	}
	if got != narrowed {
		t.Fatalf("expected Get to return the exact state Put stored, not a fresh connect")
	}
}
