package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/dao"
	"github.com/haierkeys/screen-connect-controller/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")

	fb, err := NewFileBackend(path)
	require.NoError(t, err)
	first := NewStore(fb, nil, time.Second, nil)
	assert.Equal(t, "", first.Read(KeyIdentifier, ""))
	first.Write(KeyIdentifier, "alice")
	require.NoError(t, first.Close(context.Background()))

	fb, err = NewFileBackend(path)
	require.NoError(t, err)
	second := NewStore(fb, nil, time.Second, nil)
	assert.Equal(t, "alice", second.Read(KeyIdentifier, ""))
}

func TestStore_UnavailableBackendFallsBack(t *testing.T) {
	s := NewStore(DisabledBackend{}, nil, 100*time.Millisecond, nil)

	assert.Equal(t, "guest", s.Read(KeyIdentifier, "guest"))

	// the write is swallowed, memory stays authoritative for this process
	s.Write(KeyIdentifier, "bob")
	assert.Equal(t, "bob", s.Read(KeyIdentifier, "guest"))

	restarted := NewStore(DisabledBackend{}, nil, 100*time.Millisecond, nil)
	assert.Equal(t, "guest", restarted.Read(KeyIdentifier, "guest"))
}

// blockingBackend holds every Set until its context ends
type blockingBackend struct {
	*MemoryBackend
	started chan struct{}
}

func (b *blockingBackend) Set(ctx context.Context, key, value string) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStore_WriteDoesNotWaitForBackend(t *testing.T) {
	b := &blockingBackend{MemoryBackend: NewMemoryBackend(), started: make(chan struct{}, 1)}
	s := NewStore(b, nil, 300*time.Millisecond, nil)

	start := time.Now()
	s.Write(KeyIdentifier, "p")
	s.Write(KeyIdentifier, "pl")
	s.Write(KeyIdentifier, "pla")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, "pla", s.Read(KeyIdentifier, ""))

	select {
	case <-b.started:
	case <-time.After(time.Second):
		t.Fatal("backend write never started")
	}

	// pending writes time out and are swallowed
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}

func TestStore_EmptyValueCountsAsAbsent(t *testing.T) {
	mb := NewMemoryBackend()
	require.NoError(t, mb.Set(context.Background(), KeyIdentifier, ""))

	s := NewStore(mb, nil, time.Second, nil)
	assert.Equal(t, "fallback", s.Read(KeyIdentifier, "fallback"))

	s.Write(KeyIdentifier, "carol")
	s.Write(KeyIdentifier, "")
	assert.Equal(t, "fallback", s.Read(KeyIdentifier, "fallback"))
}

func TestStore_CorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: [unterminated"), 0o600))

	fb, err := NewFileBackend(path)
	require.NoError(t, err)
	s := NewStore(fb, nil, time.Second, nil)
	assert.Equal(t, "def", s.Read(KeyIdentifier, "def"))
}

func TestStore_DatabaseBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.sqlite3")
	cfg := dao.DatabaseConfig{Type: "sqlite", Path: path, AutoMigrate: true, MaxIdleConns: 1, MaxOpenConns: 1}

	open := func() (domain.PreferenceRepository, *dao.Dao) {
		db, err := dao.NewDBEngineWithConfig(cfg, false)
		require.NoError(t, err)
		d := dao.New(db, cfg, nil)
		return dao.NewPreferenceRepository(d), d
	}

	repo, d := open()
	s := NewStore(NewDatabaseBackend(repo), nil, time.Second, nil)
	s.Write(KeyIdentifier, "dave")
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, d.Close())

	repo, d = open()
	defer d.Close()
	assert.Equal(t, "dave", NewStore(NewDatabaseBackend(repo), nil, time.Second, nil).Read(KeyIdentifier, ""))
}

func TestStore_RedisBackend(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := NewRedisUniversalClient(url)
	require.NoError(t, err)
	prefix := "controller-test-" + time.Now().Format("150405.000000")
	rb := NewRedisBackend(client, prefix)
	defer func() {
		client.Del(context.Background(), prefix+":"+KeyIdentifier)
		_ = rb.Close()
	}()

	s := NewStore(rb, nil, time.Second, nil)
	s.Write(KeyIdentifier, "erin")
	require.NoError(t, s.Flush(context.Background()))

	v, found, err := rb.Get(context.Background(), KeyIdentifier)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "erin", v)
}

func TestOpenBackend(t *testing.T) {
	b, err := OpenBackend(Config{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	b, err = OpenBackend(Config{Backend: "file", File: filepath.Join(t.TempDir(), "id.yaml")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "file", b.Name())

	_, err = OpenBackend(Config{Backend: "database"}, nil)
	assert.Error(t, err)

	_, err = OpenBackend(Config{Backend: "floppy"}, nil)
	assert.Error(t, err)

	assert.Equal(t, 2*time.Second, Config{Timeout: "nonsense"}.TimeoutDuration())
	assert.Equal(t, 500*time.Millisecond, Config{Timeout: "500ms"}.TimeoutDuration())
}
