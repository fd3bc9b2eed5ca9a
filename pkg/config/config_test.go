package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/telship/pkg/log"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("DefaultSettings().Validate() = %v", err)
	}
	if s.MaxBufferSize != 2000 {
		t.Errorf("MaxBufferSize = %d, want 2000", s.MaxBufferSize)
	}
	if !s.IsBeaconAPIDisabled {
		t.Error("beacon should be disabled by default")
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"empty endpoint", func(s *Settings) { s.EndpointURL = "" }},
		{"bad scheme", func(s *Settings) { s.EndpointURL = "ftp://example.com" }},
		{"zero batch size", func(s *Settings) { s.MaxBatchSizeInBytes = 0 }},
		{"negative interval", func(s *Settings) { s.MaxBatchInterval = -time.Second }},
		{"zero buffer", func(s *Settings) { s.MaxBufferSize = 0 }},
		{"zero mem limit", func(s *Settings) { s.EventsLimitInMem = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestStatic_Accessors(t *testing.T) {
	s := DefaultSettings()
	s.EndpointURL = "http://localhost/track"
	s.EmitLineDelimitedJSON = true
	p := NewStatic(s)

	if p.EndpointURL() != "http://localhost/track" {
		t.Errorf("EndpointURL() = %s", p.EndpointURL())
	}
	if !p.EmitLineDelimitedJSON() {
		t.Error("EmitLineDelimitedJSON() = false, want true")
	}
	if p.Settings() != s {
		t.Error("Settings() should return the wrapped value")
	}
}

func TestLive_StoreIsVisibleToAccessors(t *testing.T) {
	l := NewLive(DefaultSettings())
	if l.DisableTelemetry() {
		t.Fatal("telemetry should start enabled")
	}

	s := l.Load()
	s.DisableTelemetry = true
	s.MaxBatchInterval = time.Second
	l.Store(s)

	if !l.DisableTelemetry() {
		t.Error("DisableTelemetry() = false after Store")
	}
	if l.MaxBatchInterval() != time.Second {
		t.Errorf("MaxBatchInterval() = %v, want 1s", l.MaxBatchInterval())
	}
}

// wrapped hides the concrete provider type from Snapshot.
type wrapped struct{ Provider }

func TestSnapshot(t *testing.T) {
	s := DefaultSettings()
	s.Origin = "https://app.example.com"
	s.CompressRequests = true

	for name, p := range map[string]Provider{
		"static":  NewStatic(s),
		"live":    NewLive(s),
		"wrapped": wrapped{NewStatic(s)},
	} {
		if got := Snapshot(p); got != s {
			t.Errorf("%s: Snapshot() = %+v, want %+v", name, got, s)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.conf")
	if err := os.WriteFile(path, []byte("http://one.example/track"), 0o644); err != nil {
		t.Fatal(err)
	}

	load := func(p string) (Settings, error) {
		b, err := os.ReadFile(p)
		if err != nil {
			return Settings{}, err
		}
		endpoint := strings.TrimSpace(string(b))
		if endpoint == "broken" {
			return Settings{}, errors.New("broken file")
		}
		s := DefaultSettings()
		s.EndpointURL = endpoint
		return s, nil
	}

	initial, _ := load(path)
	live := NewLive(initial)
	recorder := log.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, live, load, recorder) }()

	waitForEntry(t, recorder, "watching config for changes")

	if err := os.WriteFile(path, []byte("broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return recorder.Count(log.ConfigReloadFailed) > 0 })
	if got := live.EndpointURL(); got != "http://one.example/track" {
		t.Errorf("EndpointURL() after failed reload = %s", got)
	}

	if err := os.WriteFile(path, []byte("http://two.example/track"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return live.EndpointURL() == "http://two.example/track" })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), NewLive(DefaultSettings()), nil, nil)
	if err == nil {
		t.Fatal("Watch() on missing file should fail")
	}
}

func waitForEntry(t *testing.T, r *log.Recorder, msg string) {
	t.Helper()
	waitFor(t, func() bool {
		for _, e := range r.Entries() {
			if e.Msg == msg {
				return true
			}
		}
		return false
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
