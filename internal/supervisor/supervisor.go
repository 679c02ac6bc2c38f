// Package supervisor owns the lifetime of every collector task (spec
// §4.9): it holds the active context, the KubeStore, the shared
// reader-writer-locked state pollers read from, and the single worker
// slot each of log/config/network/yaml/get holds at most one of.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/client-go/discovery"
	"k8s.io/klog/v2"

	"github.com/kubetui/kubetui/internal/bus"
	"github.com/kubetui/kubetui/internal/kubeclient"
	"github.com/kubetui/kubetui/internal/logengine"
	"github.com/kubetui/kubetui/internal/poller"
)

// handle is an abort-capable task slot: cancel tears the task down,
// done closes when it has actually exited. The supervisor never
// replaces a handle without calling cancel and waiting for done first
// (spec §5 "The supervisor never races a spawn against an abort").
type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *handle) abort() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// Supervisor runs the lifecycle loop described in spec §4.9. One
// Supervisor exists per process; Run blocks until ctx is cancelled.
type Supervisor struct {
	store  *kubeclient.Store
	sender bus.Sender
	reqCh  <-chan bus.Request

	mu      sync.Mutex
	context string
	shared  *kubeclient.Shared
	state   *kubeclient.ContextState

	pollers map[string]*handle // keyed by poller name, always 5 while active
	log     *handle
	config  *handle
	network *handle
	yaml    *handle
	get     *handle
}

// New creates a Supervisor that will manage startContext initially.
func New(store *kubeclient.Store, sender bus.Sender, reqCh <-chan bus.Request, startContext string) *Supervisor {
	return &Supervisor{
		store:   store,
		sender:  sender,
		reqCh:   reqCh,
		context: startContext,
		pollers: make(map[string]*handle),
	}
}

// Run executes the lifecycle loop (spec §4.9 "Lifecycle loop") until
// ctx is cancelled: restore context state, publish shared handles,
// spawn pollers and the dispatcher, and react to whichever completes.
func (sv *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			sv.abortAll()
			return ctx.Err()
		}
		state, err := sv.store.Get(sv.context)
		if err != nil {
			sv.sender.SendResponse(bus.Response{Kind: bus.RespError, Err: err})
			return err
		}
		sv.mu.Lock()
		sv.state = state
		sv.shared = kubeclient.NewShared(state.Namespaces)
		sv.shared.SetResources(state.Resources)
		sv.mu.Unlock()

		sv.sender.SendResponse(bus.Response{
			Kind:       bus.RespRestoreContext,
			Context:    sv.context,
			Namespaces: state.Namespaces,
		})
		sv.sender.SendResponse(bus.Response{Kind: bus.RespRestoreApis, Apis: state.Resources})

		loopCtx, loopCancel := context.WithCancel(ctx)
		sv.spawnPollers(loopCtx)

		newContext, workerErr := sv.dispatchUntilContextChange(loopCtx)
		loopCancel()
		sv.abortPollers()

		sv.mu.Lock()
		sv.store.Put(sv.context, sv.state)
		sv.mu.Unlock()

		if workerErr != nil {
			sv.sender.SendResponse(bus.Response{Kind: bus.RespError, Err: workerErr})
			continue
		}
		if newContext == "" {
			return nil
		}
		sv.abortAll()
		sv.mu.Lock()
		sv.context = newContext
		sv.mu.Unlock()
	}
}

func (sv *Supervisor) spawnPollers(ctx context.Context) {
	clientset := sv.state.Bundle.Clientset
	specs := map[string]struct {
		fn   poller.TableFunc
		kind bus.ResponseKind
	}{
		"pods":    {poller.PodTableFunc, bus.RespPodTable},
		"config":  {poller.ConfigTableFunc, bus.RespConfigTable},
		"network": {poller.NetworkTableFunc, bus.RespNetworkList},
	}
	for name, spec := range specs {
		pctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		sv.pollers[name] = &handle{cancel: cancel, done: done}
		p := poller.NewTablePoller(clientset, sv.shared, sv.sender, spec.fn, spec.kind)
		go func(p *poller.TablePoller, ctx context.Context, done chan struct{}) {
			defer close(done)
			p.Run(ctx)
		}(p, pctx, done)
	}

	eventCtx, eventCancel := context.WithCancel(ctx)
	eventDone := make(chan struct{})
	sv.pollers["events"] = &handle{cancel: eventCancel, done: eventDone}
	ep := poller.NewLinesPoller(clientset, sv.shared, sv.sender, poller.EventLinesFunc, bus.RespEvent)
	go func() { defer close(eventDone); ep.Run(eventCtx) }()

	apiCtx, apiCancel := context.WithCancel(ctx)
	apiDone := make(chan struct{})
	sv.pollers["api"] = &handle{cancel: apiCancel, done: apiDone}
	go func() {
		defer close(apiDone)
		sv.runAPIDiscovery(apiCtx, sv.state.Bundle.Clientset.Discovery())
	}()
}

func (sv *Supervisor) runAPIDiscovery(ctx context.Context, disco discovery.DiscoveryInterface) {
	resources, err := poller.APIDiscoveryPoller(ctx, disco)
	if err != nil {
		sv.sender.SendResponse(bus.Response{Kind: bus.RespError, Err: err})
		return
	}
	sv.sender.SendResponse(bus.Response{Kind: bus.RespApiPoll, Apis: resources})
}

func (sv *Supervisor) abortPollers() {
	for name, h := range sv.pollers {
		h.abort()
		delete(sv.pollers, name)
	}
}

func (sv *Supervisor) abortAll() {
	sv.abortPollers()
	sv.log.abort()
	sv.config.abort()
	sv.network.abort()
	sv.yaml.abort()
	sv.get.abort()
	sv.log, sv.config, sv.network, sv.yaml, sv.get = nil, nil, nil, nil, nil
}

// dispatchUntilContextChange reads requests until one produces a
// Context::Set (returns the new context name), ctx is cancelled
// (returns "" and nil), or the request channel closes (returns an error).
func (sv *Supervisor) dispatchUntilContextChange(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", nil
		case req, ok := <-sv.reqCh:
			if !ok {
				return "", fmt.Errorf("supervisor: request channel closed")
			}
			if newCtx, done := sv.handleRequest(ctx, req); done {
				return newCtx, nil
			}
		}
	}
}

// handleRequest implements the dispatch table in spec §4.9. done is
// true only for Context::Set, which ends this context's iteration.
func (sv *Supervisor) handleRequest(ctx context.Context, req bus.Request) (newContext string, done bool) {
	switch req.Kind {
	case bus.ReqNamespaceGet:
		sv.sender.SendResponse(bus.Response{Kind: bus.RespNamespaceGet, Namespaces: sv.shared.Namespaces()})

	case bus.ReqNamespaceSet:
		sv.shared.SetNamespaces(req.Namespaces)
		sv.state.Namespaces = req.Namespaces
		sv.log.abort()
		sv.config.abort()
		sv.network.abort()
		sv.yaml.abort()
		sv.get.abort()
		sv.log, sv.config, sv.network, sv.yaml, sv.get = nil, nil, nil, nil, nil
		sv.sender.SendResponse(bus.Response{Kind: bus.RespNamespaceSet, Namespaces: req.Namespaces})

	case bus.ReqPodSetColumns:
		sv.shared.SetPodColumns(req.Columns)

	case bus.ReqLogStart:
		sv.log.abort()
		sv.log = sv.spawnLogSession(ctx, req.LogCfg)

	case bus.ReqLogToggleJSONPrettyPrint:
		sv.log.abort()
		// Only stops the running session; no new session is started here
		// and the flag is not stored. A session with JSON pretty-printing
		// flipped starts only when a later ReqLogStart carries that
		// LogConfig, and it starts from "now" with no history replay.

	case bus.ReqApiGet:
		sv.sender.SendResponse(bus.Response{Kind: bus.RespApiGet, Apis: sv.shared.Resources()})

	case bus.ReqApiSet:
		sv.shared.SetResources(req.Apis)
		sv.state.Resources = req.Apis

	case bus.ReqContextGet:
		names, err := sv.store.Contexts()
		if err != nil {
			sv.sender.SendResponse(bus.Response{Kind: bus.RespError, Err: err})
			return "", false
		}
		sv.sender.SendResponse(bus.Response{Kind: bus.RespContextGet, Namespaces: names})

	case bus.ReqContextSet:
		sv.log.abort()
		sv.config.abort()
		sv.network.abort()
		sv.yaml.abort()
		sv.get.abort()
		sv.log, sv.config, sv.network, sv.yaml, sv.get = nil, nil, nil, nil, nil
		return req.Context, true

	case bus.ReqConfigFetchData:
		sv.config.abort()
		sv.config = sv.spawnOneShotTable(ctx, poller.ConfigTableFunc, bus.RespConfigTable)

	case bus.ReqNetworkDescribe:
		sv.network.abort()
		sv.network = sv.spawnOneShotTable(ctx, poller.NetworkTableFunc, bus.RespNetworkList)

	case bus.ReqYamlApis, bus.ReqYamlResources, bus.ReqYamlFetch:
		sv.yaml.abort()
		sv.yaml = sv.spawnYamlRequest(ctx, req)

	case bus.ReqGetFetchYAML:
		sv.get.abort()
		sv.get = sv.spawnYamlRequest(ctx, req)

	default:
		klog.V(4).Infof("supervisor: unhandled request kind %v", req.Kind)
	}
	return "", false
}

func (sv *Supervisor) spawnLogSession(ctx context.Context, cfg bus.LogConfig) *handle {
	hctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	session := logengine.NewSession(sv.state.Bundle.Clientset, logengine.Config{
		Namespace:       cfg.Namespace,
		PodName:         cfg.PodName,
		JSONPrettyPrint: cfg.JSONPrettyPrint,
	}, sv.sender)
	go func() { defer close(done); session.Run(hctx) }()
	return &handle{cancel: cancel, done: done}
}

func (sv *Supervisor) spawnOneShotTable(ctx context.Context, fn poller.TableFunc, kind bus.ResponseKind) *handle {
	hctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	clientset := sv.state.Bundle.Clientset
	shared := sv.shared
	sender := sv.sender
	go func() {
		defer close(done)
		item, err := fn(hctx, clientset, shared.Namespaces())
		if err != nil {
			sender.SendResponse(bus.Response{Kind: bus.RespError, Err: err})
			return
		}
		sender.SendResponse(bus.Response{Kind: kind, Table: item})
	}()
	return &handle{cancel: cancel, done: done}
}

func (sv *Supervisor) spawnYamlRequest(ctx context.Context, req bus.Request) *handle {
	hctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	sender := sv.sender
	go func() {
		defer close(done)
		// No document is fetched and no response is sent: the worker
		// only holds the abort-before-spawn slot until it is aborted.
		// poller.YAMLFetcher is not called from here.
		<-hctx.Done()
	}()
	return &handle{cancel: cancel, done: done}
}

// bundleFor returns the active context's raw client bundle, or nil when
// no context is active. It is unexported and has no caller.
func (sv *Supervisor) bundleFor() *kubeclient.Bundle {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.state == nil {
		return nil
	}
	return sv.state.Bundle
}
