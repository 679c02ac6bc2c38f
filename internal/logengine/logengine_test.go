package logengine

import (
	"context"
	"strings"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestPrefixNeededOnlyWithMultipleContainers(t *testing.T) {
	if prefixNeeded(0, 1) {
		t.Fatalf("single container, no init: prefix should not be needed")
	}
	if !prefixNeeded(1, 1) {
		t.Fatalf("init + regular container: prefix should be needed")
	}
	if !prefixNeeded(0, 2) {
		t.Fatalf("two regular containers: prefix should be needed")
	}
}

func TestColorCyclerIsStablePerContainer(t *testing.T) {
	c := NewColorCycler()
	first := c.ColorFor("app")
	second := c.ColorFor("sidecar")
	if c.ColorFor("app") != first {
		t.Fatalf("expected stable color for repeated container name")
	}
	if first == second {
		t.Fatalf("expected distinct colors for distinct containers")
	}
}

func TestColorCyclerWrapsAroundPalette(t *testing.T) {
	c := NewColorCycler()
	seen := make(map[int]bool)
	for i := 0; i < len(containerColors); i++ {
		seen[c.ColorFor(strings.Repeat("c", i+1))] = true
	}
	if len(seen) != len(containerColors) {
		t.Fatalf("expected %d distinct colors, got %d", len(containerColors), len(seen))
	}
}

func TestSharedBufferDrainCoalescesBurst(t *testing.T) {
	b := &SharedBuffer{}
	b.Append("a")
	b.Append("b")
	b.Append("c")
	lines := b.Drain()
	if len(lines) != 3 {
		t.Fatalf("expected one coalesced drain of 3 lines, got %d", len(lines))
	}
	if b.Drain() != nil {
		t.Fatalf("expected nil drain on empty buffer")
	}
}

func TestWaitUntilReadyTreatsPodInitializingAsNotReady(t *testing.T) {
	s := &Session{pod: &SharedPod{}}
	s.pod.Set(&corev1.Pod{
		Status: corev1.PodStatus{
			InitContainerStatuses: []corev1.ContainerStatus{
				{Name: "setup", State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "PodInitializing"}}},
			},
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if s.waitUntilReady(ctx, "setup", true) {
		t.Fatalf("expected PodInitializing to never be treated as ready within the timeout")
	}
}

func TestWaitUntilReadyAcceptsCrashLoopBackOff(t *testing.T) {
	s := &Session{pod: &SharedPod{}}
	s.pod.Set(&corev1.Pod{
		Status: corev1.PodStatus{
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "app", State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"}}},
			},
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !s.waitUntilReady(ctx, "app", false) {
		t.Fatalf("expected CrashLoopBackOff to be treated as ready")
	}
}

func TestWaitUntilReadyPermissiveForOtherWaitingReasons(t *testing.T) {
	s := &Session{pod: &SharedPod{}}
	s.pod.Set(&corev1.Pod{
		Status: corev1.PodStatus{
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "app", State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ImagePullBackOff"}}},
			},
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !s.waitUntilReady(ctx, "app", false) {
		t.Fatalf("expected permissive readiness for a non-CrashLoopBackOff waiting reason")
	}
}

func TestBuildPostmortemContainsExitCodeAndReason(t *testing.T) {
	pod := &corev1.Pod{
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "app", Image: "busybox", Command: []string{"sh"}}},
		},
	}
	term := &corev1.ContainerStateTerminated{
		ExitCode:   137,
		Reason:     "OOMKilled",
		StartedAt:  metav1.Now(),
		FinishedAt: metav1.Now(),
	}
	st := &corev1.ContainerStatus{Name: "app"}
	text := BuildPostmortem(pod, "app", st, term)
	if !strings.Contains(text, "Exit Code:  137") {
		t.Fatalf("expected exit code in postmortem, got:\n%s", text)
	}
	if !strings.Contains(text, "Reason:     OOMKilled") {
		t.Fatalf("expected reason in postmortem, got:\n%s", text)
	}
	if !strings.Contains(text, "Image:      busybox") {
		t.Fatalf("expected image in postmortem, got:\n%s", text)
	}
}

func TestColorizeOmitsPrefixForSingleContainerPod(t *testing.T) {
	line := colorize("", "hello", 32)
	if line != "hello" {
		t.Fatalf("expected no color/prefix wrapping when prefix is empty, got %q", line)
	}
}

func TestColorizeWrapsPrefixedLine(t *testing.T) {
	line := colorize("[app]", "hello", 32)
	if !strings.Contains(line, "[app]") || !strings.Contains(line, "hello") {
		t.Fatalf("expected prefixed+colorized line, got %q", line)
	}
}

func TestPrefixForRegularContainerIsBareName(t *testing.T) {
	if got := prefixFor("c", 0, "app"); got != "[app]" {
		t.Fatalf("expected bare-name prefix for regular container, got %q", got)
	}
	if got := prefixFor("c", 1, "sidecar"); got != "[sidecar]" {
		t.Fatalf("expected bare-name prefix for regular container, got %q", got)
	}
}

func TestPrefixForInitContainerKeepsOrdinal(t *testing.T) {
	if got := prefixFor("init", 0, "setup"); got != "[init-0:setup]" {
		t.Fatalf("expected ordinal-qualified prefix for init container, got %q", got)
	}
}
