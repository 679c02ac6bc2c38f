package poller

import (
	"context"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/kubetui/kubetui/internal/bus"
	"github.com/kubetui/kubetui/internal/kubeclient"
)

func TestPodTableFuncProjectsReadyAndRestarts(t *testing.T) {
	clientset := k8sfake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-1"},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{
				{Ready: true, RestartCount: 2},
				{Ready: false, RestartCount: 0},
			},
		},
	})
	item, err := PodTableFunc(context.Background(), clientset, []string{""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(item.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(item.Rows))
	}
	row := item.Rows[0]
	if row.Cells[2] != "1/2" || row.Cells[4] != "2" {
		t.Fatalf("unexpected projection: %+v", row.Cells)
	}
}

func TestTablePollerSendsResponseOnEachTick(t *testing.T) {
	clientset := k8sfake.NewSimpleClientset()
	ch := make(chan bus.Event, 4)
	sender := bus.NewSender(ch)
	shared := kubeclient.NewShared([]string{""})
	p := NewTablePoller(clientset, shared, sender, PodTableFunc, bus.RespPodTable)
	p.tick = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	p.Run(ctx)
	ev := <-ch
	if ev.Response.Kind != bus.RespPodTable {
		t.Fatalf("expected a pod table response on empty cluster, got %+v", ev)
	}
}

func TestListNamespacesNormalizesEmptySelectionToAll(t *testing.T) {
	got := listNamespaces([]string{""})
	if len(got) != 1 || got[0] != metav1.NamespaceAll {
		t.Fatalf("expected [NamespaceAll], got %v", got)
	}
	got = listNamespaces([]string{"default", "kube-system"})
	if len(got) != 2 {
		t.Fatalf("expected explicit namespaces passed through, got %v", got)
	}
}
