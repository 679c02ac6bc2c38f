// Package kubeclient adapts the cluster client bundle into the
// supervisor's KubeStore (spec §3, §4.9): per-context client handles,
// target namespaces, and target API resources, behind the
// reader-writer locks spec §5 requires for state shared between the
// supervisor and its workers.
package kubeclient

import (
	"context"
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/kubetui/kubetui/internal/bus"
)

// ContextState is the per-context slice of the store: a ready client
// bundle plus the user's namespace and API-resource selections, which
// persist across context switches.
type ContextState struct {
	Bundle     *Bundle
	Namespaces []string
	Resources  []bus.ApiResource
}

// Store maps kubeconfig context name to ContextState, so that
// switching away from a context and back restores the user's prior
// selections (spec §3 "Context state").
//
// Store is accessed only by the supervisor loop, never directly by
// workers (spec §5) — workers see a *Shared snapshot instead.
type Store struct {
	mu         sync.Mutex
	kubeconfig string
	states     map[string]*ContextState
}

// NewStore creates an empty Store reading contexts from the given
// kubeconfig path ("" uses the default resolution rules).
func NewStore(kubeconfigPath string) *Store {
	return &Store{kubeconfig: kubeconfigPath, states: make(map[string]*ContextState)}
}

// Contexts lists the kubeconfig's known context names.
func (s *Store) Contexts() ([]string, error) {
	return ListContexts(s.kubeconfig)
}

// CurrentContext returns the kubeconfig's current-context entry.
func (s *Store) CurrentContext() (string, error) {
	return CurrentContext(s.kubeconfig)
}

// Get returns the ContextState for name, creating (and connecting) one
// on first access. The default namespace selection is [""] (the
// empty string, meaning every namespace) until the user narrows it.
func (s *Store) Get(name string) (*ContextState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[name]; ok {
		return st, nil
	}
	bundle, err := NewBundle(s.kubeconfig, name)
	if err != nil {
		return nil, fmt.Errorf("kubeclient: connect to context %q: %w", name, err)
	}
	st := &ContextState{Bundle: bundle, Namespaces: []string{""}}
	s.states[name] = st
	return st, nil
}

// Put snapshots state back into the store under name (used when the
// supervisor leaves a context, so a later return restores selections).
func (s *Store) Put(name string, state *ContextState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[name] = state
}

// Shared is the reader-writer-locked state the supervisor publishes to
// every poller and worker for the active context (spec §5 "Shared-
// resource policy"). Writers are the supervisor (on requests); readers
// are the pollers and the UI.
type Shared struct {
	mu         sync.RWMutex
	namespaces []string
	resources  []bus.ApiResource
	columns    []string
}

// NewShared wraps the given initial namespaces as a fresh Shared.
func NewShared(namespaces []string) *Shared {
	return &Shared{namespaces: namespaces}
}

func (s *Shared) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.namespaces))
	copy(out, s.namespaces)
	return out
}

func (s *Shared) SetNamespaces(ns []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces = append([]string(nil), ns...)
}

func (s *Shared) Resources() []bus.ApiResource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bus.ApiResource, len(s.resources))
	copy(out, s.resources)
	return out
}

func (s *Shared) SetResources(r []bus.ApiResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append([]bus.ApiResource(nil), r...)
}

func (s *Shared) PodColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s *Shared) SetPodColumns(c []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = append([]string(nil), c...)
}

// ListNamespaces returns every namespace name in the cluster
// (cluster-scoped list, spec §6 "List namespaces").
func ListNamespaces(ctx context.Context, bundle *Bundle) ([]string, error) {
	if bundle == nil || bundle.Clientset == nil {
		return nil, fmt.Errorf("kubeclient: client not initialized")
	}
	list, err := bundle.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("kubeclient: list namespaces: %w", err)
	}
	out := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		out = append(out, ns.Name)
	}
	return out, nil
}

// GetPod fetches a single pod by name (spec §6 "List and watch one pod
// by name").
func GetPod(ctx context.Context, bundle *Bundle, namespace, name string) (*corev1.Pod, error) {
	if bundle == nil || bundle.Clientset == nil {
		return nil, fmt.Errorf("kubeclient: client not initialized")
	}
	pod, err := bundle.Clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("kubeclient: get pod %s/%s: %w", namespace, name, err)
	}
	return pod, nil
}

// WatchPod opens a 180s-timeout watch on a single pod (spec §5
// "Timeouts"); callers re-establish the watch on expiry via their own
// outer loop.
func WatchPod(ctx context.Context, bundle *Bundle, namespace, name string) (watch.Interface, error) {
	timeout := int64(180)
	w, err := bundle.Clientset.CoreV1().Pods(namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector:  "metadata.name=" + name,
		TimeoutSeconds: &timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("kubeclient: watch pod %s/%s: %w", namespace, name, err)
	}
	return w, nil
}
