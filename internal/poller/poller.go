// Package poller implements the tick-list-project-send loop shared by
// every resource poller (spec §4.7): pod list, config objects, events,
// network objects, API discovery, and the one-shot YAML fetcher.
package poller

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/yaml"

	"github.com/kubetui/kubetui/internal/bus"
	"github.com/kubetui/kubetui/internal/kubeclient"
	"github.com/kubetui/kubetui/internal/table"
)

// DefaultTick is the poller's tick interval (spec §4.7, §5).
const DefaultTick = 1 * time.Second

// TableFunc lists one resource kind across namespaces and projects it
// into a KubeTable.
type TableFunc func(ctx context.Context, clientset kubernetes.Interface, namespaces []string) (table.Item, error)

// LinesFunc is the event/YAML analogue of TableFunc, projecting into
// text lines instead of a table.
type LinesFunc func(ctx context.Context, clientset kubernetes.Interface, namespaces []string) ([]string, error)

// TablePoller runs a TableFunc on a tick, publishing one bus.Response
// per tick (including on error — the poller never stops on a
// transport error, per spec §4.7 and §7).
type TablePoller struct {
	clientset kubernetes.Interface
	shared    *kubeclient.Shared
	sender    bus.Sender
	fn        TableFunc
	respKind  bus.ResponseKind
	errKind   bus.ResponseKind
	tick      time.Duration
}

// NewTablePoller builds a poller that lists via fn and reports under
// respKind (errors are reported as bus.RespError regardless, carrying
// the error so the UI can render it without crashing the poller).
func NewTablePoller(clientset kubernetes.Interface, shared *kubeclient.Shared, sender bus.Sender, fn TableFunc, respKind bus.ResponseKind) *TablePoller {
	return &TablePoller{clientset: clientset, shared: shared, sender: sender, fn: fn, respKind: respKind, tick: DefaultTick}
}

// Run ticks until ctx is cancelled (the supervisor aborts the poller by
// cancelling this context on context/namespace change, per spec §4.7).
func (p *TablePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	p.tickOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tickOnce(ctx)
		}
	}
}

func (p *TablePoller) tickOnce(ctx context.Context) {
	namespaces := p.shared.Namespaces()
	item, err := p.fn(ctx, p.clientset, namespaces)
	if err != nil {
		p.sender.SendResponse(bus.Response{Kind: bus.RespError, Err: fmt.Errorf("poller: %w", err)})
		return
	}
	p.sender.SendResponse(bus.Response{Kind: p.respKind, Table: item})
}

// LinesPoller is TablePoller's text-line analogue, used by the event
// tailer.
type LinesPoller struct {
	clientset kubernetes.Interface
	shared    *kubeclient.Shared
	sender    bus.Sender
	fn        LinesFunc
	respKind  bus.ResponseKind
	tick      time.Duration
}

func NewLinesPoller(clientset kubernetes.Interface, shared *kubeclient.Shared, sender bus.Sender, fn LinesFunc, respKind bus.ResponseKind) *LinesPoller {
	return &LinesPoller{clientset: clientset, shared: shared, sender: sender, fn: fn, respKind: respKind, tick: DefaultTick}
}

func (p *LinesPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	p.tickOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tickOnce(ctx)
		}
	}
}

func (p *LinesPoller) tickOnce(ctx context.Context) {
	namespaces := p.shared.Namespaces()
	lines, err := p.fn(ctx, p.clientset, namespaces)
	if err != nil {
		p.sender.SendResponse(bus.Response{Kind: bus.RespError, Err: fmt.Errorf("poller: %w", err)})
		return
	}
	p.sender.SendResponse(bus.Response{Kind: p.respKind, Lines: lines})
}

// listNamespaces normalizes the shared selection: [""] or an empty
// slice means "all namespaces" (metav1.NamespaceAll); anything else is
// the explicit user-chosen list.
func listNamespaces(namespaces []string) []string {
	if len(namespaces) == 0 {
		return []string{metav1.NamespaceAll}
	}
	for _, ns := range namespaces {
		if ns == "" {
			return []string{metav1.NamespaceAll}
		}
	}
	return namespaces
}

// PodTableFunc lists pods across namespaces, projecting ready count,
// phase, restarts, and age — the default pod-poller projection.
func PodTableFunc(ctx context.Context, clientset kubernetes.Interface, namespaces []string) (table.Item, error) {
	item := table.Item{Header: []string{"NAMESPACE", "NAME", "READY", "STATUS", "RESTARTS", "AGE"}}
	for _, ns := range listNamespaces(namespaces) {
		list, err := clientset.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
		if err != nil {
			return table.Item{}, fmt.Errorf("list pods in %q: %w", ns, err)
		}
		for _, pod := range list.Items {
			item.Rows = append(item.Rows, projectPodRow(pod))
		}
	}
	return item, nil
}

func projectPodRow(pod corev1.Pod) table.Row {
	ready, total, restarts := 0, len(pod.Status.ContainerStatuses), 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += int(cs.RestartCount)
	}
	age := ""
	if !pod.CreationTimestamp.IsZero() {
		age = time.Since(pod.CreationTimestamp.Time).Truncate(time.Second).String()
	}
	return table.Row{
		Metadata: map[string]string{"namespace": pod.Namespace, "name": pod.Name},
		Cells: []string{
			pod.Namespace,
			pod.Name,
			fmt.Sprintf("%d/%d", ready, total),
			string(pod.Status.Phase),
			fmt.Sprintf("%d", restarts),
			age,
		},
	}
}

// ConfigTableFunc lists ConfigMaps across namespaces. Secrets are not
// listed, here or by any other poller or worker.
func ConfigTableFunc(ctx context.Context, clientset kubernetes.Interface, namespaces []string) (table.Item, error) {
	item := table.Item{Header: []string{"NAMESPACE", "NAME", "DATA", "AGE"}}
	for _, ns := range listNamespaces(namespaces) {
		list, err := clientset.CoreV1().ConfigMaps(ns).List(ctx, metav1.ListOptions{})
		if err != nil {
			return table.Item{}, fmt.Errorf("list configmaps in %q: %w", ns, err)
		}
		for _, cm := range list.Items {
			age := ""
			if !cm.CreationTimestamp.IsZero() {
				age = time.Since(cm.CreationTimestamp.Time).Truncate(time.Second).String()
			}
			item.Rows = append(item.Rows, table.Row{
				Metadata: map[string]string{"namespace": cm.Namespace, "name": cm.Name},
				Cells:    []string{cm.Namespace, cm.Name, fmt.Sprintf("%d", len(cm.Data)), age},
			})
		}
	}
	return item, nil
}

// NetworkTableFunc lists Services across namespaces.
func NetworkTableFunc(ctx context.Context, clientset kubernetes.Interface, namespaces []string) (table.Item, error) {
	item := table.Item{Header: []string{"NAMESPACE", "NAME", "TYPE", "CLUSTER-IP", "PORTS"}}
	for _, ns := range listNamespaces(namespaces) {
		list, err := clientset.CoreV1().Services(ns).List(ctx, metav1.ListOptions{})
		if err != nil {
			return table.Item{}, fmt.Errorf("list services in %q: %w", ns, err)
		}
		for _, svc := range list.Items {
			ports := ""
			for i, p := range svc.Spec.Ports {
				if i > 0 {
					ports += ","
				}
				ports += fmt.Sprintf("%d/%s", p.Port, p.Protocol)
			}
			item.Rows = append(item.Rows, table.Row{
				Metadata: map[string]string{"namespace": svc.Namespace, "name": svc.Name},
				Cells:    []string{svc.Namespace, svc.Name, string(svc.Spec.Type), svc.Spec.ClusterIP, ports},
			})
		}
	}
	return item, nil
}

// EventLinesFunc lists recent Events across namespaces as text lines,
// the event tailer's projection (spec §4.7 "a vector of text lines for
// events/YAML").
func EventLinesFunc(ctx context.Context, clientset kubernetes.Interface, namespaces []string) ([]string, error) {
	var lines []string
	for _, ns := range listNamespaces(namespaces) {
		list, err := clientset.CoreV1().Events(ns).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, fmt.Errorf("list events in %q: %w", ns, err)
		}
		for _, ev := range list.Items {
			lines = append(lines, fmt.Sprintf("%s %s/%s %s: %s", ev.LastTimestamp.Format(time.RFC3339), ev.InvolvedObject.Kind, ev.InvolvedObject.Name, ev.Reason, ev.Message))
		}
	}
	return lines, nil
}

// APIDiscoveryPoller is a one-shot fetch of the server's API group
// catalogue, styled into ApiResource entries (spec §4.9 "Api::Get").
func APIDiscoveryPoller(ctx context.Context, disco discovery.DiscoveryInterface) ([]bus.ApiResource, error) {
	groups, resources, err := disco.ServerGroupsAndResources()
	if err != nil && len(resources) == 0 {
		return nil, fmt.Errorf("api discovery: %w", err)
	}
	_ = groups
	var out []bus.ApiResource
	for _, rl := range resources {
		for _, r := range rl.APIResources {
			out = append(out, bus.ApiResource{Group: r.Group, Version: rl.GroupVersion, Kind: r.Kind})
		}
	}
	return out, nil
}

// YAMLFetcher fetches one resource's canonical document via the
// dynamic client and renders it as YAML text (spec §6 "Fetch a single
// resource as its canonical document for YAML display").
func YAMLFetcher(ctx context.Context, dyn dynamic.Interface, gvr GVR, namespace, name string) (string, error) {
	var obj interface{}
	var err error
	if namespace == "" {
		obj, err = dyn.Resource(gvr.toGVR()).Get(ctx, name, metav1.GetOptions{})
	} else {
		obj, err = dyn.Resource(gvr.toGVR()).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	}
	if err != nil {
		return "", fmt.Errorf("fetch yaml for %s/%s: %w", namespace, name, err)
	}
	out, err := yaml.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	return string(out), nil
}

// GVR identifies one discovered resource kind by group/version/resource
// plural, the shape the YAML/get/network workers address by.
type GVR struct {
	Group, Version, Resource string
}

func (g GVR) toGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: g.Group, Version: g.Version, Resource: g.Resource}
}
