package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/geopod-io/geopod/internal/config"
	"github.com/geopod-io/geopod/internal/store"
)

type fakeSettings struct {
	mu sync.Mutex
	m  map[string]string
}

func (f *fakeSettings) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[key]
	return v, ok, nil
}

func (f *fakeSettings) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.m[key] = value
	return nil
}

func newTestController(t *testing.T) (*Controller, *fakeSettings) {
	t.Helper()
	settings := &fakeSettings{}
	cfg := config.ServerConfig{
		InternalAddress: "127.0.0.1",
		ExternalAddress: "127.0.0.1",
		Port:            0, // ephemeral, the test never dials it
		APIPath:         "/v1",
	}
	handler := func() http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(cfg, settings, handler, log)
	t.Cleanup(c.Shutdown)
	return c, settings
}

func TestStart_ThenAlreadyRunning(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	msg, err := c.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(msg, "Server started successfully on ") {
		t.Fatalf("msg=%q", msg)
	}

	msg, err = c.Start(ctx)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if msg != "Server is already running" {
		t.Fatalf("msg=%q", msg)
	}
	if st := c.Status(ctx); !st.Running {
		t.Fatalf("status=%+v want running", st)
	}
}

func TestStop_WhenNotRunning(t *testing.T) {
	c, _ := newTestController(t)

	msg, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if msg != "Server was not running" {
		t.Fatalf("msg=%q", msg)
	}
}

func TestStartStop_Cycle(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	msg, err := c.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if msg != "Server stopped successfully" {
		t.Fatalf("msg=%q", msg)
	}
	if st := c.Status(ctx); st.Running {
		t.Fatalf("status=%+v want stopped", st)
	}
}

func TestRestart(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	msg, err := c.Restart(ctx)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if msg != "Server restarted successfully" {
		t.Fatalf("msg=%q", msg)
	}
	if st := c.Status(ctx); !st.Running {
		t.Fatalf("status=%+v want running", st)
	}
}

func TestRestart_FromStopped(t *testing.T) {
	c, _ := newTestController(t)

	msg, err := c.Restart(context.Background())
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if msg != "Server restarted successfully" {
		t.Fatalf("msg=%q", msg)
	}
}

func TestConcurrentStarts_OneWinner(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	const n = 10
	msgs := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := c.Start(ctx)
			if err != nil {
				t.Errorf("Start: %v", err)
				return
			}
			msgs <- msg
		}()
	}
	wg.Wait()
	close(msgs)

	started, already := 0, 0
	for msg := range msgs {
		switch {
		case strings.HasPrefix(msg, "Server started successfully"):
			started++
		case msg == "Server is already running":
			already++
		default:
			t.Fatalf("unexpected msg %q", msg)
		}
	}
	if started != 1 || already != n-1 {
		t.Fatalf("started=%d already=%d want 1/%d", started, already, n-1)
	}
}

func TestReconfigure_CollectsAllViolations(t *testing.T) {
	c, settings := newTestController(t)

	_, err := c.Reconfigure(context.Background(), Params{
		InternalAddress: "",
		ExternalAddress: " ",
		Port:            80,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err=%T want *ValidationError", err)
	}
	if len(verr.Violations) != 3 {
		t.Fatalf("violations=%v want 3", verr.Violations)
	}
	if len(settings.m) != 0 {
		t.Fatalf("rejected reconfigure must not persist, got %v", settings.m)
	}
}

func TestReconfigure_PersistsAndRestarts(t *testing.T) {
	c, settings := newTestController(t)
	ctx := context.Background()

	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	msg, err := c.Reconfigure(ctx, Params{
		InternalAddress: "127.0.0.1",
		ExternalAddress: "geopod.example.org",
		Port:            38291,
	})
	if err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if msg != "Server restarted successfully" {
		t.Fatalf("msg=%q", msg)
	}

	settings.mu.Lock()
	persisted := map[string]string{}
	for k, v := range settings.m {
		persisted[k] = v
	}
	settings.mu.Unlock()
	if persisted[store.SettingInternalAddress] != "127.0.0.1" ||
		persisted[store.SettingExternalAddress] != "geopod.example.org" ||
		persisted[store.SettingPort] != "38291" {
		t.Fatalf("persisted=%v", persisted)
	}

	st := c.Status(ctx)
	if !st.Running {
		t.Fatalf("status=%+v want running", st)
	}
	if st.BindAddress != "127.0.0.1:38291" {
		t.Fatalf("BindAddress=%q", st.BindAddress)
	}
	if st.ExternalURL != "http://geopod.example.org:38291/v1" {
		t.Fatalf("ExternalURL=%q", st.ExternalURL)
	}
}
