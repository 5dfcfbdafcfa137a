package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fruitsalade/putio/pkg/mock"
	"github.com/fruitsalade/putio/pkg/models"
)

func sandbox(t *testing.T) (*mock.Server, string) {
	t.Helper()
	api := mock.New("tok")
	seedSandbox(api)
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	t.Setenv("PUTIO_TOKEN", "tok")
	t.Setenv("PUTIO_API_BASE", ts.URL)
	t.Setenv("LOG_LEVEL", "error")
	return api, ts.URL
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_List(t *testing.T) {
	sandbox(t)
	code, out, errOut := runCLI(t, "ls")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"Movies", "Shows", "readme.txt", "dir"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_InfoAndHLS(t *testing.T) {
	_, base := sandbox(t)

	code, out, errOut := runCLI(t, "info", "3")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Big Buck Bunny.mp4") || !strings.Contains(out, "312s") {
		t.Errorf("unexpected info output:\n%s", out)
	}

	code, out, _ = runCLI(t, "hls", "3")
	if code != 0 {
		t.Fatalf("hls exit %d", code)
	}
	want := base + "/files/3/hls/media.m3u8?oauth_token=tok&subtitle_key=all"
	if strings.TrimSpace(out) != want {
		t.Errorf("expected %s, got %s", want, out)
	}
}

func TestCLI_RenameMoveDelete(t *testing.T) {
	api, _ := sandbox(t)

	if code, _, errOut := runCLI(t, "rename", "6", "notes.txt"); code != 0 {
		t.Fatalf("rename exit %d: %s", code, errOut)
	}
	if f, _ := api.File(6); f == nil || *f.Name != "notes.txt" {
		t.Errorf("rename not applied: %+v", f)
	}

	if code, _, errOut := runCLI(t, "mv", "1", "6"); code != 0 {
		t.Fatalf("mv exit %d: %s", code, errOut)
	}
	if f, _ := api.File(6); f.ParentID != 1 {
		t.Errorf("move not applied, parent=%d", f.ParentID)
	}

	if code, _, errOut := runCLI(t, "rm", "6", "4"); code != 0 {
		t.Fatalf("rm exit %d: %s", code, errOut)
	}
	if _, ok := api.File(6); ok {
		t.Error("file 6 should be deleted")
	}
}

func TestCLI_Errors(t *testing.T) {
	sandbox(t)

	if code, _, _ := runCLI(t); code != 2 {
		t.Errorf("no args: expected 2, got %d", code)
	}
	if code, _, _ := runCLI(t, "bogus"); code != 2 {
		t.Errorf("unknown command: expected 2, got %d", code)
	}
	if code, _, errOut := runCLI(t, "rename", "1"); code != 2 || !strings.Contains(errOut, "rename <id> <name>") {
		t.Errorf("missing name: expected usage, got %d %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "info", "abc"); code != 1 {
		t.Errorf("bad id: expected 1, got %d", code)
	}
	if code, _, errOut := runCLI(t, "info", "999"); code != 1 || !strings.Contains(errOut, "not found") {
		t.Errorf("missing file: expected not found, got %d %q", code, errOut)
	}
	if code, _, errOut := runCLI(t, "ls", "-token", "wrong"); code != 1 || !strings.Contains(errOut, "unauthorized") {
		t.Errorf("bad token: expected unauthorized, got %d %q", code, errOut)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCLI_Watch(t *testing.T) {
	api := mock.New("tok")
	seedSandbox(api)
	listed := make(chan struct{}, 16)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.ServeHTTP(w, r)
		if r.URL.Path == "/files/list" {
			select {
			case listed <- struct{}{}:
			default:
			}
		}
	}))
	defer ts.Close()
	t.Setenv("PUTIO_TOKEN", "tok")
	t.Setenv("PUTIO_API_BASE", ts.URL)
	t.Setenv("LOG_LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", "-interval", "20ms"}, &stdout, &stderr)
	}()

	select {
	case <-listed:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial listing")
	}
	api.Add(mock.Entry{Name: "new.mp4", ContentType: "video/mp4"})

	deadline := time.After(5 * time.Second)
	for !strings.Contains(stdout.String(), "new.mp4") {
		select {
		case <-deadline:
			t.Fatalf("added file never reported; stdout=%q stderr=%q", stdout.String(), stderr.String())
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !strings.HasPrefix(stdout.String(), "+ ") {
		t.Errorf("first line = %q, want an addition", stdout.String())
	}

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit %d: %s", code, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestDiff(t *testing.T) {
	name := func(s string) *string { return &s }
	known := map[int64]string{1: "a", 2: "b"}
	list := []*models.File{{ID: 2, Name: name("b")}, {ID: 3, Name: name("c")}}

	added, removed := diff(known, list)
	if len(added) != 1 || added[0].ID != 3 {
		t.Errorf("added = %v, want [3]", models.IDs(added))
	}
	if len(removed) != 1 || removed[0] != 1 {
		t.Errorf("removed = %v, want [1]", removed)
	}

	added, removed = diff(nil, list)
	if len(added) != 2 || len(removed) != 0 {
		t.Errorf("diff from empty = %d added, %d removed", len(added), len(removed))
	}
}
