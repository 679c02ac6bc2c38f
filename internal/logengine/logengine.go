// Package logengine is the log-stream engine (spec §4.8): three
// cooperating tasks per pod session — a pod watcher, a buffer flusher,
// and a stream orchestrator that runs init containers serially then
// regular containers in parallel, reporting a structured postmortem on
// non-zero exit.
package logengine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	"github.com/kubetui/kubetui/internal/bus"
)

// FlushInterval is how often the shared buffer is swapped and shipped
// to the UI (spec §4.8 "Buffer flusher").
const FlushInterval = 200 * time.Millisecond

// ReadyPollInterval is how often a container's readiness is rechecked
// while waiting to start its follow stream (spec §4.8 step 1, §5).
const ReadyPollInterval = 200 * time.Millisecond

// containerColors cycles ANSI SGR foreground codes across containers
// so each one's prefix is visually distinct (spec's "color cycler").
var containerColors = []int{32, 33, 34, 35, 36, 31}

// ColorCycler hands out a stable color per container name, cycling
// through containerColors in first-seen order.
type ColorCycler struct {
	mu     sync.Mutex
	order  []string
	colors map[string]int
}

func NewColorCycler() *ColorCycler {
	return &ColorCycler{colors: make(map[string]int)}
}

// ColorFor returns the SGR color code assigned to name, assigning the
// next one in sequence on first sight.
func (c *ColorCycler) ColorFor(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code, ok := c.colors[name]; ok {
		return code
	}
	code := containerColors[len(c.order)%len(containerColors)]
	c.colors[name] = code
	c.order = append(c.order, name)
	return code
}

// SharedBuffer is the append-only text buffer the stream orchestrator's
// sub-tasks write to and the flusher atomically drains (spec §3
// "Pod-stream state", §4.8 "Buffer flusher").
type SharedBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *SharedBuffer) Append(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// Drain atomically swaps out the accumulated lines, returning nil if
// the buffer was empty (the flusher only sends on non-empty drains).
func (b *SharedBuffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == 0 {
		return nil
	}
	out := b.lines
	b.lines = nil
	return out
}

// SharedPod holds the latest pod object observed by the watcher,
// behind a reader-writer lock shared with the stream orchestrator
// (spec §3 "shared reference to the latest pod object", §9 "Cyclic
// shared state").
type SharedPod struct {
	mu  sync.RWMutex
	pod *corev1.Pod
}

func (s *SharedPod) Set(pod *corev1.Pod) {
	s.mu.Lock()
	s.pod = pod
	s.mu.Unlock()
}

func (s *SharedPod) Get() *corev1.Pod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pod
}

// prefixNeeded reports whether log lines must be disambiguated with a
// container prefix: true whenever there is more than one container to
// follow in total, across init and regular containers (spec §4.8
// "Prefix policy").
func prefixNeeded(initCount, regularCount int) bool {
	return initCount+regularCount > 1
}

// prefixFor formats the disambiguation prefix for one container's log
// lines: init containers keep their ordinal (several init containers
// can share a name across retries), regular containers are prefixed
// with the bare container name (spec §8, original_source log.rs).
func prefixFor(kind string, index int, name string) string {
	if kind == "init" {
		return fmt.Sprintf("[init-%d:%s]", index, name)
	}
	return fmt.Sprintf("[%s]", name)
}

// Config configures one log-stream session (mirrors bus.LogConfig
// without its FilterQuery; the session applies no filter).
type Config struct {
	Namespace       string
	PodName         string
	JSONPrettyPrint bool
}

// Session runs the three cooperating tasks for one pod's log stream
// and can be aborted as a unit via its context.
type Session struct {
	clientset kubernetes.Interface
	cfg       Config
	sender    bus.Sender

	buffer *SharedBuffer
	pod    *SharedPod
	colors *ColorCycler
}

// NewSession creates a session; call Run to start it on a cancellable
// context (the supervisor owns cancellation, per spec §4.9/§5).
func NewSession(clientset kubernetes.Interface, cfg Config, sender bus.Sender) *Session {
	return &Session{
		clientset: clientset,
		cfg:       cfg,
		sender:    sender,
		buffer:    &SharedBuffer{},
		pod:       &SharedPod{},
		colors:    NewColorCycler(),
	}
}

// Run blocks until ctx is cancelled or the session ends (error or pod
// gone). It spawns the pod watcher, the buffer flusher, and the stream
// orchestrator together and waits for all to finish, so aborting ctx
// tears down every sub-task as a unit (spec §4.8, §5 "Cancellation").
func (s *Session) Run(ctx context.Context) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); s.watchPod(sessionCtx, cancel) }()
	go func() { defer wg.Done(); s.flushLoop(sessionCtx) }()
	go func() { defer wg.Done(); s.orchestrate(sessionCtx, cancel) }()
	wg.Wait()
}

func (s *Session) watchPod(ctx context.Context, abort context.CancelFunc) {
	for {
		if ctx.Err() != nil {
			return
		}
		timeout := int64(180)
		w, err := s.clientset.CoreV1().Pods(s.cfg.Namespace).Watch(ctx, metav1.ListOptions{
			FieldSelector:  "metadata.name=" + s.cfg.PodName,
			TimeoutSeconds: &timeout,
		})
		if err != nil {
			s.sender.SendResponse(bus.Response{Kind: bus.RespLogErr, Err: fmt.Errorf("pod watch: %w", err)})
			abort()
			return
		}
		for ev := range w.ResultChan() {
			if ev.Type == watch.Bookmark {
				continue
			}
			pod, ok := ev.Object.(*corev1.Pod)
			if !ok {
				continue
			}
			s.pod.Set(pod)
		}
		// Channel closed: either ctx cancelled (return above next loop) or
		// the 180s server-side watch timeout expired — re-establish.
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Session) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if lines := s.buffer.Drain(); lines != nil {
				s.sender.SendResponse(bus.Response{Kind: bus.RespLogOk, Lines: lines})
			}
		}
	}
}

func (s *Session) orchestrate(ctx context.Context, abort context.CancelFunc) {
	// Driven from the live watcher state rather than a one-shot Get,
	// since the watcher already holds the authoritative current object;
	// a direct Get here would race the watcher's first event.
	current := s.waitForInitialPod(ctx)
	if current == nil {
		return
	}

	needsPrefix := prefixNeeded(len(current.Spec.InitContainers), len(current.Spec.Containers))

	for i, c := range current.Spec.InitContainers {
		if ctx.Err() != nil {
			return
		}
		if !s.runContainer(ctx, "init", i, c.Name, needsPrefix, true) {
			abort()
			return
		}
	}

	if ctx.Err() != nil {
		return
	}

	var wg sync.WaitGroup
	failed := make(chan struct{}, 1)
	for i, c := range current.Spec.Containers {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			if !s.runContainer(ctx, "c", i, name, needsPrefix, false) {
				select {
				case failed <- struct{}{}:
				default:
				}
			}
		}(i, c.Name)
	}
	wg.Wait()
	select {
	case <-failed:
		abort()
	default:
	}
}

func (s *Session) waitForInitialPod(ctx context.Context) *corev1.Pod {
	ticker := time.NewTicker(ReadyPollInterval)
	defer ticker.Stop()
	for {
		if p := s.pod.Get(); p != nil {
			return p
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runContainer waits for readiness, streams the container's logs into
// the shared buffer, then inspects the terminated state and reports a
// postmortem on non-zero exit. Returns false if the session should
// abort (the container failed). A stream error is sent as a RespLogErr
// and does not by itself abort the session.
func (s *Session) runContainer(ctx context.Context, kind string, index int, name string, needsPrefix, isInit bool) bool {
	if !s.waitUntilReady(ctx, name, isInit) {
		return true // context cancelled; not itself a failure to report
	}

	prefix := ""
	if needsPrefix {
		prefix = prefixFor(kind, index, name)
	}
	color := s.colors.ColorFor(name)

	if err := s.streamContainer(ctx, name, prefix, color); err != nil {
		klog.V(2).Infof("logengine: stream %s ended: %v", name, err)
		if ctx.Err() == nil {
			s.sender.SendResponse(bus.Response{Kind: bus.RespLogErr, Err: err})
		}
	}

	return s.checkTerminated(ctx, name)
}

// waitUntilReady blocks until the container is Terminated, Running, or
// Waiting with reason CrashLoopBackOff; "PodInitializing" keeps
// waiting; any other Waiting reason is treated as ready (spec §4.8
// step 1 and §9's Open Question resolution: permissive readiness).
func (s *Session) waitUntilReady(ctx context.Context, name string, isInit bool) bool {
	ticker := time.NewTicker(ReadyPollInterval)
	defer ticker.Stop()
	for {
		if st := containerStatus(s.pod.Get(), name, isInit); st != nil {
			switch {
			case st.State.Terminated != nil, st.State.Running != nil:
				return true
			case st.State.Waiting != nil && st.State.Waiting.Reason == "CrashLoopBackOff":
				return true
			case st.State.Waiting != nil && st.State.Waiting.Reason == "PodInitializing":
				// keep waiting
			case st.State.Waiting != nil:
				return true // permissive: any other waiting reason is "ready"
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func containerStatus(pod *corev1.Pod, name string, isInit bool) *corev1.ContainerStatus {
	if pod == nil {
		return nil
	}
	statuses := pod.Status.ContainerStatuses
	if isInit {
		statuses = pod.Status.InitContainerStatuses
	}
	for i := range statuses {
		if statuses[i].Name == name {
			return &statuses[i]
		}
	}
	return nil
}

func (s *Session) streamContainer(ctx context.Context, name, prefix string, color int) error {
	req := s.clientset.CoreV1().Pods(s.cfg.Namespace).GetLogs(s.cfg.PodName, &corev1.PodLogOptions{
		Container: name,
		Follow:    true,
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return fmt.Errorf("open log stream for %s: %w", name, err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if s.cfg.JSONPrettyPrint {
			line = prettyPrintIfJSON(line)
		}
		s.buffer.Append(colorize(prefix, line, color))
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func colorize(prefix, line string, color int) string {
	if prefix == "" {
		return line
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m %s", color, prefix, line)
}

// checkTerminated blocks until the container's (or last) state is
// Terminated, then decides whether the session must report a
// postmortem and abort.
func (s *Session) checkTerminated(ctx context.Context, name string) bool {
	ticker := time.NewTicker(ReadyPollInterval)
	defer ticker.Stop()
	for {
		pod := s.pod.Get()
		st := containerStatus(pod, name, true)
		if st == nil {
			st = containerStatus(pod, name, false)
		}
		if st != nil {
			if st.State.Terminated != nil {
				if st.State.Terminated.ExitCode != 0 {
					s.reportPostmortem(pod, name, st, st.State.Terminated)
					return false
				}
				return true
			}
			if st.State.Waiting != nil && st.State.Waiting.Reason == "CrashLoopBackOff" && st.LastTerminationState.Terminated != nil {
				s.reportPostmortem(pod, name, st, st.LastTerminationState.Terminated)
				return false
			}
		}
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
		}
	}
}

func (s *Session) reportPostmortem(pod *corev1.Pod, containerName string, st *corev1.ContainerStatus, term *corev1.ContainerStateTerminated) {
	text := BuildPostmortem(pod, containerName, st, term)
	s.sender.SendResponse(bus.Response{Kind: bus.RespLogErr, Err: fmt.Errorf("%s", text)})
}

// BuildPostmortem renders the structured multi-line block the engine
// emits on non-zero container exit (spec §4.8, §8 scenario 4): image,
// command, args, terminated block, current/last state, and recent
// matching Events.
func BuildPostmortem(pod *corev1.Pod, containerName string, st *corev1.ContainerStatus, term *corev1.ContainerStateTerminated) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Container %q exited\n", containerName)
	if pod != nil {
		for _, c := range append(append([]corev1.Container{}, pod.Spec.InitContainers...), pod.Spec.Containers...) {
			if c.Name == containerName {
				fmt.Fprintf(&b, "Image:      %s\n", c.Image)
				fmt.Fprintf(&b, "Command:    %s\n", strings.Join(c.Command, " "))
				fmt.Fprintf(&b, "Args:       %s\n", strings.Join(c.Args, " "))
				break
			}
		}
	}
	fmt.Fprintf(&b, "Exit Code:  %s\n", strconv.Itoa(int(term.ExitCode)))
	fmt.Fprintf(&b, "Reason:     %s\n", term.Reason)
	fmt.Fprintf(&b, "Message:    %s\n", term.Message)
	fmt.Fprintf(&b, "Started:    %s\n", term.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished:   %s\n", term.FinishedAt.Format(time.RFC3339))
	if st.State.Waiting != nil {
		fmt.Fprintf(&b, "Current:    Waiting (%s)\n", st.State.Waiting.Reason)
	}
	if st.LastTerminationState.Terminated != nil && st.LastTerminationState.Terminated != term {
		fmt.Fprintf(&b, "Last State: Terminated exit=%d reason=%s\n", st.LastTerminationState.Terminated.ExitCode, st.LastTerminationState.Terminated.Reason)
	}
	return b.String()
}

func prettyPrintIfJSON(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return line
	}
	return trimmed
}
