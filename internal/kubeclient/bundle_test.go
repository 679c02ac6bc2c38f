package kubeclient

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeKubeconfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write kubeconfig: %v", err)
	}
	return path
}

func TestListAndCurrentContext(t *testing.T) {
	kubeconfig := `apiVersion: v1
kind: Config
current-context: prod
contexts:
- name: prod
  context:
    cluster: c1
    user: u1
- name: dev
  context:
    cluster: c1
    user: u2
clusters:
- name: c1
  cluster:
    server: https://127.0.0.1:6443
users:
- name: u1
  user:
    token: abc
- name: u2
  user:
    exec:
      apiVersion: client.authentication.k8s.io/v1
      command: aws
      args: ["eks", "get-token"]
`
	path := writeKubeconfig(t, kubeconfig)
	ctxs, err := ListContexts(path)
	if err != nil {
		t.Fatalf("ListContexts failed: %v", err)
	}
	want := []string{"dev", "prod"}
	if !reflect.DeepEqual(ctxs, want) {
		t.Fatalf("contexts mismatch: got %v want %v", ctxs, want)
	}
	current, err := CurrentContext(path)
	if err != nil {
		t.Fatalf("CurrentContext failed: %v", err)
	}
	if current != "prod" {
		t.Fatalf("current context = %q want prod", current)
	}
}

func TestDetectAuthMethods(t *testing.T) {
	kubeconfig := `apiVersion: v1
kind: Config
current-context: prod
contexts:
- name: prod
  context:
    cluster: c1
    user: u1
- name: dev
  context:
    cluster: c1
    user: u2
clusters:
- name: c1
  cluster:
    server: https://127.0.0.1:6443
users:
- name: u1
  user:
    token: abc
    client-certificate-data: "Y2VydA=="
- name: u2
  user:
    exec:
      apiVersion: client.authentication.k8s.io/v1
      command: gcloud
    auth-provider:
      name: oidc
`
	path := writeKubeconfig(t, kubeconfig)
	raw, err := loadRawConfig(path)
	if err != nil {
		t.Fatalf("loadRawConfig failed: %v", err)
	}
	got := DetectAuthMethods(raw, "prod")
	want := []string{"token", "client-cert"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("auth methods mismatch for prod: got %v want %v", got, want)
	}
	got = DetectAuthMethods(raw, "dev")
	want = []string{"exec", "auth-provider:oidc"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("auth methods mismatch for dev: got %v want %v", got, want)
	}
}

func TestLoadRawConfigCacheTTL(t *testing.T) {
	origTTL := rawConfigCacheTTL
	rawConfigCacheTTL = 40 * time.Millisecond
	defer func() { rawConfigCacheTTL = origTTL }()

	rawConfigCacheMu.Lock()
	rawConfigCache = map[string]rawConfigCacheEntry{}
	rawConfigCacheMu.Unlock()

	path := writeKubeconfig(t, `apiVersion: v1
kind: Config
current-context: c1
contexts:
- name: c1
  context:
    cluster: cl
    user: u
clusters:
- name: cl
  cluster:
    server: https://127.0.0.1:6443
users:
- name: u
  user:
    token: a
`)

	ctxs1, err := ListContexts(path)
	if err != nil {
		t.Fatalf("ListContexts(1): %v", err)
	}
	if !reflect.DeepEqual(ctxs1, []string{"c1"}) {
		t.Fatalf("unexpected contexts: %v", ctxs1)
	}

	if err := os.WriteFile(path, []byte(`apiVersion: v1
kind: Config
current-context: c2
contexts:
- name: c2
  context:
    cluster: cl
    user: u
clusters:
- name: cl
  cluster:
    server: https://127.0.0.1:6443
users:
- name: u
  user:
    token: b
`), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	ctxsCached, err := ListContexts(path)
	if err != nil {
		t.Fatalf("ListContexts(cached): %v", err)
	}
	if !reflect.DeepEqual(ctxsCached, []string{"c1"}) {
		t.Fatalf("expected cached contexts [c1], got %v", ctxsCached)
	}

	time.Sleep(55 * time.Millisecond)
	ctxs2, err := ListContexts(path)
	if err != nil {
		t.Fatalf("ListContexts(2): %v", err)
	}
	if !reflect.DeepEqual(ctxs2, []string{"c2"}) {
		t.Fatalf("expected refreshed contexts [c2], got %v", ctxs2)
	}
}

func TestBundleCacheTTL(t *testing.T) {
	origTTL := bundleCacheTTL
	bundleCacheTTL = 40 * time.Millisecond
	defer func() { bundleCacheTTL = origTTL }()

	bundleCacheMu.Lock()
	bundleCache = map[string]bundleCacheEntry{}
	bundleCacheMu.Unlock()

	path := writeKubeconfig(t, `apiVersion: v1
kind: Config
current-context: c1
contexts:
- name: c1
  context:
    cluster: cl
    user: u
clusters:
- name: cl
  cluster:
    server: https://127.0.0.1:6443
users:
- name: u
  user:
    token: a
`)

	b1, err := NewBundle(path, "c1")
	if err != nil {
		t.Fatalf("NewBundle(1): %v", err)
	}
	b2, err := NewBundle(path, "c1")
	if err != nil {
		t.Fatalf("NewBundle(2): %v", err)
	}
	if b1 != b2 {
		t.Fatal("expected cached bundle pointer to be reused within TTL")
	}

	time.Sleep(55 * time.Millisecond)
	b3, err := NewBundle(path, "c1")
	if err != nil {
		t.Fatalf("NewBundle(3): %v", err)
	}
	if b3 == b2 {
		t.Fatal("expected cache refresh after TTL")
	}
}
