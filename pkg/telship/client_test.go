package telship

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/telship/internal/domain"
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/storage"
	"github.com/bft-labs/telship/pkg/transport"
)

// ingest is a fake backend that records batch bodies.
type ingest struct {
	*httptest.Server

	mu     sync.Mutex
	status int
	bodies []string
}

func newIngest(t *testing.T, status int) *ingest {
	t.Helper()
	in := &ingest{status: status}
	in.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		in.mu.Lock()
		in.bodies = append(in.bodies, string(body))
		status := in.status
		in.mu.Unlock()

		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = io.WriteString(w, `{"itemsReceived":1,"itemsAccepted":1,"errors":[],"appId":"app-1"}`)
		}
	}))
	t.Cleanup(in.Close)
	return in
}

func (in *ingest) received() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.bodies...)
}

func (in *ingest) setStatus(status int) {
	in.mu.Lock()
	in.status = status
	in.mu.Unlock()
}

func settingsFor(endpoint string) config.Settings {
	s := config.DefaultSettings()
	s.EndpointURL = endpoint
	s.MaxBatchInterval = time.Second
	return s
}

// stateRecorder captures lifecycle transitions.
type stateRecorder struct {
	BaseEventHandler

	mu     sync.Mutex
	states []State
}

func (h *stateRecorder) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	h.states = append(h.states, e.Current)
	h.mu.Unlock()
}

func (h *stateRecorder) seen() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]State(nil), h.states...)
}

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) ([]byte, error) { return nil, storage.ErrNotFound }
func (brokenStorage) Set(context.Context, string, []byte) error   { return errors.New("quota exceeded") }
func (brokenStorage) Remove(context.Context, string) error        { return nil }

func TestNew_InvalidSettings(t *testing.T) {
	s := config.DefaultSettings()
	s.EndpointURL = ""

	_, err := New(config.NewStatic(s))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNew_ConfigFileWithoutLoader(t *testing.T) {
	_, err := New(config.NewStatic(config.DefaultSettings()), WithConfigFile("settings.json", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestClient_Lifecycle(t *testing.T) {
	in := newIngest(t, http.StatusOK)
	handler := &stateRecorder{}

	c, err := New(config.NewStatic(settingsFor(in.URL)), WithEventHandler(handler))
	require.NoError(t, err)
	assert.Equal(t, StateStopped, c.Status())

	assert.ErrorIs(t, c.Stop(), domain.ErrNotRunning)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRunning, c.Status())
	assert.ErrorIs(t, c.Start(context.Background()), domain.ErrAlreadyRunning)

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.Status())

	// A stopped client can be started again.
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop())

	assert.Equal(t, []State{
		StateStarting, StateRunning, StateUnloading, StateStopped,
		StateStarting, StateRunning, StateUnloading, StateStopped,
	}, handler.seen())
}

func TestClient_DeliversOnTimer(t *testing.T) {
	in := newIngest(t, http.StatusOK)
	mock := clock.NewMock()

	c, err := New(config.NewStatic(settingsFor(in.URL)), WithClock(mock))
	require.NoError(t, err)
	assert.Equal(t, transport.KindRequest, c.Transport())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	c.Track(`{"name":"a"}`)
	c.TrackEnvelope(map[string]string{"name": "b"})
	assert.Equal(t, 2, c.Pending())

	mock.Add(time.Second)

	require.Eventually(t, func() bool { return len(in.received()) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return c.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, `[{"name":"a"},{"name":"b"}]`, in.received()[0])
	assert.Equal(t, "app-1", c.AppID())
}

func TestClient_StopFlushes(t *testing.T) {
	in := newIngest(t, http.StatusOK)

	c, err := New(config.NewStatic(settingsFor(in.URL)), WithClock(clock.NewMock()))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	c.Track(`{"name":"a"}`)
	require.NoError(t, c.Stop())

	assert.Len(t, in.received(), 1)
	assert.Zero(t, c.Pending())
}

func TestClient_TrackBeforeStart(t *testing.T) {
	in := newIngest(t, http.StatusOK)

	c, err := New(config.NewStatic(settingsFor(in.URL)), WithClock(clock.NewMock()))
	require.NoError(t, err)

	c.Track(`{"name":"early"}`)
	c.Flush(false)

	assert.Equal(t, []string{`[{"name":"early"}]`}, in.received())
}

func TestClient_DurableSurvivesRestart(t *testing.T) {
	in := newIngest(t, http.StatusServiceUnavailable)
	store := storage.NewMemory()
	s := settingsFor(in.URL)

	first, err := New(config.NewStatic(s), WithStorage(store), WithClock(clock.NewMock()))
	require.NoError(t, err)
	require.True(t, first.Durable())

	first.Track(`{"name":"a"}`)
	first.Track(`{"name":"b"}`)
	first.Flush(false)

	// 503 is retriable: both items are back in the buffer and persisted.
	assert.Equal(t, 2, first.Pending())

	in.setStatus(http.StatusOK)

	second, err := New(config.NewStatic(s), WithStorage(store), WithClock(clock.NewMock()))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Pending())

	require.NoError(t, second.Start(context.Background()))
	require.NoError(t, second.Stop())

	bodies := in.received()
	require.Len(t, bodies, 2)
	assert.Equal(t, `[{"name":"a"},{"name":"b"}]`, bodies[1])
	assert.Zero(t, second.Pending())
}

func TestClient_BufferSelection(t *testing.T) {
	in := newIngest(t, http.StatusOK)

	tests := []struct {
		name    string
		enabled bool
		store   storage.Storage
		durable bool
	}{
		{"durable", true, storage.NewMemory(), true},
		{"disabled", false, storage.NewMemory(), false},
		{"no storage", true, nil, false},
		{"storage probe fails", true, brokenStorage{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settingsFor(in.URL)
			s.EnableSessionStorageBuffer = tt.enabled

			opts := []Option{WithClock(clock.NewMock())}
			if tt.store != nil {
				opts = append(opts, WithStorage(tt.store))
			}
			c, err := New(config.NewStatic(s), opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.durable, c.Durable())
		})
	}
}

func TestClient_KeyPrefix(t *testing.T) {
	in := newIngest(t, http.StatusOK)
	store := storage.NewMemory()

	c, err := New(config.NewStatic(settingsFor(in.URL)),
		WithStorage(store), WithKeyPrefix("app1_"), WithClock(clock.NewMock()))
	require.NoError(t, err)
	c.Track(`{"name":"a"}`)

	data, err := store.Get(context.Background(), "app1_buffer")
	require.NoError(t, err)
	assert.JSONEq(t, `["{\"name\":\"a\"}"]`, string(data))
}

func TestClient_NoTransport(t *testing.T) {
	in := newIngest(t, http.StatusOK)
	logs := log.NewRecorder()

	c, err := New(config.NewStatic(settingsFor(in.URL)),
		WithCapabilities(transport.Capabilities{}), WithLogger(logs))
	require.NoError(t, err)
	assert.Equal(t, transport.KindNone, c.Transport())

	c.Track(`{"name":"a"}`)
	assert.Zero(t, c.Pending())
	assert.Equal(t, 1, logs.Count(log.SenderNotInitialized))
}

func loadJSON(path string) (config.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Settings{}, err
	}
	s := config.DefaultSettings()
	err = json.Unmarshal(data, &s)
	return s, err
}

func writeSettings(t *testing.T, path string, s config.Settings) {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestClient_ConfigReload(t *testing.T) {
	in := newIngest(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "settings.json")
	s := settingsFor(in.URL)
	writeSettings(t, path, s)

	c, err := New(config.NewStatic(s), WithConfigFile(path, loadJSON), WithClock(clock.NewMock()))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	s.DisableTelemetry = true
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has picked up a change.
		writeSettings(t, path, s)
		return c.Settings().DisableTelemetry()
	}, 2*time.Second, 20*time.Millisecond)

	c.Track(`{"name":"ignored"}`)
	assert.Zero(t, c.Pending())
}

func TestClient_ConfigFileMissing(t *testing.T) {
	in := newIngest(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "missing.json")

	c, err := New(config.NewStatic(settingsFor(in.URL)), WithConfigFile(path, loadJSON))
	require.NoError(t, err)

	err = c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, StateFailed, c.Status())
}

func TestIsVersionCompatible(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"1.0.0", "1.0.0", true},
		{"1.2.0", "1.1.9", true},
		{"1.0.1", "1.0.2", false},
		{"2.0.0", "1.9.9", true},
		{"0.9.0", "1.0.0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isVersionCompatible(tt.version, tt.min), "%s >= %s", tt.version, tt.min)
	}
	assert.NoError(t, validateModuleVersions())
}

func TestConvertState(t *testing.T) {
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Unloading", StateUnloading.String())
}
