package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Storage{
		"memory": NewMemory(),
		"dir":    NewDir(filepath.Join(t.TempDir(), "buffers")),
		"redis":  NewRedis(client, "sess:", 0),
		"sqlite": db,
	}
}

func TestBackends_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
			}

			if err := s.Set(ctx, "k", []byte(`["a","b"]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `["a","b"]` {
				t.Errorf("Get = %q", got)
			}

			if err := s.Set(ctx, "k", []byte(`[]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = s.Get(ctx, "k")
			if string(got) != `[]` {
				t.Errorf("after overwrite Get = %q", got)
			}

			if err := s.Remove(ctx, "k"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Remove error = %v", err)
			}
			if err := s.Remove(ctx, "k"); err != nil {
				t.Errorf("second Remove: %v", err)
			}
		})
	}
}

func TestBackends_Probe(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := Probe(ctx, s); err != nil {
				t.Fatalf("Probe: %v", err)
			}
			if _, err := s.Get(ctx, probeKey); !errors.Is(err, ErrNotFound) {
				t.Errorf("probe key left behind: %v", err)
			}
		})
	}
}

func TestProbe_NilBackend(t *testing.T) {
	if err := Probe(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil backend")
	}
}

type failingStorage struct{ err error }

func (f failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStorage) Set(context.Context, string, []byte) error   { return f.err }
func (f failingStorage) Remove(context.Context, string) error        { return f.err }

func TestProbe_WriteFailure(t *testing.T) {
	quota := errors.New("quota exceeded")
	err := Probe(context.Background(), failingStorage{err: quota})
	if !errors.Is(err, quota) {
		t.Fatalf("Probe error = %v, want wrapped quota error", err)
	}
	if !strings.Contains(err.Error(), "probe write") {
		t.Errorf("error = %q, want probe write prefix", err)
	}
}

func TestDir_AtomicWriteLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir)

	if err := d.Set(context.Background(), "telship_buffer", []byte(`["x"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := os.Stat(d.Path("telship_buffer") + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still exists: %v", err)
	}
	if _, err := os.Stat(d.Path("telship_buffer")); err != nil {
		t.Errorf("value file missing: %v", err)
	}
}

func TestDir_KeyIsEscaped(t *testing.T) {
	d := NewDir(t.TempDir())
	p := d.Path("../escape/me")
	if filepath.Dir(p) != filepath.Clean(d.dir) {
		t.Errorf("Path(%q) = %q escapes storage dir", "../escape/me", p)
	}
}

func TestRedis_PrefixAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedisFromURL("redis://"+mr.Addr(), "session-1:", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisFromURL: %v", err)
	}
	defer r.Close()

	if err := r.Set(context.Background(), "telship_buffer", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if !mr.Exists("session-1:telship_buffer") {
		t.Fatal("prefixed key not written")
	}
	if ttl := mr.TTL("session-1:telship_buffer"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}
}

func TestNewRedisFromURL_Invalid(t *testing.T) {
	if _, err := NewRedisFromURL("not a url", "", 0); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := db.Set(ctx, "telship_sent_buffer", []byte(`["p"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.Get(ctx, "telship_sent_buffer")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `["p"]` {
		t.Errorf("Get = %q", got)
	}
}
