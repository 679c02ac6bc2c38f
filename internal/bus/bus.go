// Package bus defines the typed message envelopes that flow between
// the UI thread and the supervisor's worker tasks (spec §4.10, §6): UI
// input and poller/log output travel over one Event channel; requests
// and responses are tagged unions modeled here as Go structs with a
// Kind discriminant, since Go has no native tagged union.
package bus

import (
	"github.com/kubetui/kubetui/internal/filter"
	"github.com/kubetui/kubetui/internal/table"
)

// RequestKind discriminates the Request union (spec §6).
type RequestKind int

const (
	ReqNamespaceGet RequestKind = iota
	ReqNamespaceSet
	ReqContextGet
	ReqContextSet
	ReqApiGet
	ReqApiSet
	ReqPodSetColumns
	ReqLogStart
	ReqLogToggleJSONPrettyPrint
	ReqConfigFetchData
	ReqYamlApis
	ReqYamlResources
	ReqYamlFetch
	ReqGetFetchYAML
	ReqNetworkDescribe
)

// ResourceRef names a single namespaced Kubernetes object, the common
// shape requests use to address config/get/network/yaml workers.
type ResourceRef struct {
	Namespace string
	Kind      string
	Name      string
}

// ApiResource names one discoverable API resource kind (the entries in
// the "target API resources" catalogue).
type ApiResource struct {
	Group   string
	Version string
	Kind    string
}

// LogConfig configures a log-stream session (spec §4.8).
type LogConfig struct {
	Namespace       string
	PodName         string
	FilterQuery     string
	JSONPrettyPrint bool
}

// Request is the UI-to-supervisor envelope. Exactly the fields
// relevant to Kind are populated; this mirrors a tagged union without
// requiring Go generics or reflection at the dispatch site.
type Request struct {
	Kind RequestKind

	Namespaces []string
	Context    string
	Apis       []ApiResource
	Columns    []string
	LogCfg     LogConfig
	Resource   ResourceRef
}

// ResponseKind discriminates the Response union.
type ResponseKind int

const (
	RespNamespaceGet ResponseKind = iota
	RespNamespaceSet
	RespContextGet
	RespRestoreContext
	RespRestoreApis
	RespPodTable
	RespConfigTable
	RespConfigData
	RespNetworkList
	RespNetworkDescribe
	RespEvent
	RespApiGet
	RespApiPoll
	RespLogOk
	RespLogErr
	RespYamlApis
	RespYamlResources
	RespYamlYaml
	RespGetOk
	RespGetErr
	RespChangedContext
	RespError
)

// Response is the supervisor/worker-to-UI envelope.
type Response struct {
	Kind ResponseKind

	Namespaces []string
	Context    string
	Apis       []ApiResource
	Table      table.Item
	Lines      []string
	Err        error
}

// EventKind discriminates the outer Event union that also carries user
// input and tick events alongside bus Responses (spec §4.10).
type EventKind int

const (
	EventKey EventKind = iota
	EventMouse
	EventTick
	EventResponse
	EventError
)

// KeyInput and MouseInput mirror widget.KeyEvent/MouseEvent without
// importing the widget package, keeping bus a leaf dependency for
// workers that never touch rendering.
type KeyInput struct {
	Name  string
	Runes []rune
}

type MouseInput struct {
	Column, Row int
	Kind        int
}

// Event is the single channel type the UI thread receives on.
type Event struct {
	Kind     EventKind
	Key      KeyInput
	Mouse    MouseInput
	Response Response
	Err      error
}

// Sender is what worker tasks hold: a bounded channel of Events.
type Sender struct {
	ch chan<- Event
}

// NewSender wraps a channel as a Sender.
func NewSender(ch chan<- Event) Sender { return Sender{ch: ch} }

// Send delivers ev without blocking, returning false if the channel is
// full. The workers in this repository ignore the result: a dropped
// event is lost and the worker keeps running.
func (s Sender) Send(ev Event) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// SendResponse is a convenience wrapper for the common case.
func (s Sender) SendResponse(r Response) bool {
	return s.Send(Event{Kind: EventResponse, Response: r})
}

// CompileFilter is a thin seam so bus consumers can compile a DSL
// string into attributes without importing internal/filter directly;
// kept here because LogConfig's filter text is part of the bus
// contract's payload.
func CompileFilter(query string) ([]filter.Attribute, error) {
	return filter.Parse(query)
}
