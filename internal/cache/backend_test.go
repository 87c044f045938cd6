package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendFactories builds a fresh instance of every Backend implementation.
func backendFactories(t *testing.T) map[string]func(t *testing.T) Backend {
	t.Helper()
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend {
			t.Helper()
			return NewMemoryBackend("test")
		},
		"file": func(t *testing.T) Backend {
			t.Helper()
			b, err := NewFileBackend(filepath.Join(t.TempDir(), "videos"))
			require.NoError(t, err)
			return b
		},
		"sqlite": func(t *testing.T) Backend {
			t.Helper()
			db, err := OpenSQLite(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { _ = closeSQLite(db) })
			b, err := NewSQLiteBackend(db, "cache_videos")
			require.NoError(t, err)
			return b
		},
	}
}

func TestBackendContract(t *testing.T) {
	for name, newBackend := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("read missing", func(t *testing.T) {
				b := newBackend(t)
				_, err := b.Read(HashKey("missing"))
				assert.ErrorIs(t, err, ErrRecordNotFound)
			})

			t.Run("write read overwrite", func(t *testing.T) {
				b := newBackend(t)
				key := HashKey("k")
				require.NoError(t, b.Write(key, []byte("one")))
				require.NoError(t, b.Write(key, []byte("two")))

				got, err := b.Read(key)
				require.NoError(t, err)
				assert.Equal(t, []byte("two"), got)
			})

			t.Run("delete reports existence", func(t *testing.T) {
				b := newBackend(t)
				key := HashKey("k")
				require.NoError(t, b.Write(key, []byte("x")))

				existed, err := b.Delete(key)
				require.NoError(t, err)
				assert.True(t, existed)

				existed, err = b.Delete(key)
				require.NoError(t, err)
				assert.False(t, existed)
			})

			t.Run("scan visits every record", func(t *testing.T) {
				b := newBackend(t)
				want := map[string]string{}
				for _, id := range []string{"a", "b", "c"} {
					key := HashKey(id)
					want[key] = id
					require.NoError(t, b.Write(key, []byte(id)))
				}

				got := map[string]string{}
				var total int64
				require.NoError(t, b.Scan(func(rec Record) error {
					require.NoError(t, rec.Err)
					got[rec.Key] = string(rec.Data)
					total += rec.Size
					return nil
				}))
				assert.Equal(t, want, got)
				assert.Equal(t, int64(3), total)
			})

			t.Run("scan callback may delete", func(t *testing.T) {
				b := newBackend(t)
				for _, id := range []string{"a", "b"} {
					require.NoError(t, b.Write(HashKey(id), []byte(id)))
				}
				require.NoError(t, b.Scan(func(rec Record) error {
					_, err := b.Delete(rec.Key)
					return err
				}))
				n, err := b.Purge()
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("scan stops on callback error", func(t *testing.T) {
				b := newBackend(t)
				require.NoError(t, b.Write(HashKey("a"), []byte("a")))
				require.NoError(t, b.Write(HashKey("b"), []byte("b")))

				stop := errors.New("stop")
				calls := 0
				err := b.Scan(func(Record) error {
					calls++
					return stop
				})
				assert.ErrorIs(t, err, stop)
				assert.Equal(t, 1, calls)
			})

			t.Run("purge counts records", func(t *testing.T) {
				b := newBackend(t)
				for _, id := range []string{"a", "b", "c"} {
					require.NoError(t, b.Write(HashKey(id), []byte(id)))
				}
				n, err := b.Purge()
				require.NoError(t, err)
				assert.Equal(t, 3, n)

				n, err = b.Purge()
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("concurrent writers leave one complete record", func(t *testing.T) {
				b := newBackend(t)
				key := HashKey("contended")
				payloads := [][]byte{
					[]byte(`{"writer":"first","pad":"aaaaaaaaaaaaaaaaaaaaaaaa"}`),
					[]byte(`{"writer":"second","pad":"bbbbbbbbbbbbbbbb"}`),
				}

				var wg sync.WaitGroup
				for i := range 20 {
					wg.Add(1)
					go func(p []byte) {
						defer wg.Done()
						assert.NoError(t, b.Write(key, p))
					}(payloads[i%2])
				}
				wg.Wait()

				got, err := b.Read(key)
				require.NoError(t, err)
				assert.Contains(t, payloads, got)
			})

			t.Run("location", func(t *testing.T) {
				assert.NotEmpty(t, newBackend(t).Location())
			})
		})
	}
}

func TestFileBackend_EmptyDirectory(t *testing.T) {
	_, err := NewFileBackend("")
	require.Error(t, err)
}

func TestFileBackend_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "comments")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	key := HashKey("vid")
	require.NoError(t, b.Write(key, []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, key+".json", entries[0].Name())
	assert.Equal(t, dir, b.Location())
}

func TestFileBackend_ScanIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, b.Write(HashKey("a"), []byte("a")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".abc.tmp"), []byte("partial"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o750))

	count := 0
	require.NoError(t, b.Scan(func(Record) error {
		count++
		return nil
	}))
	assert.Equal(t, 1, count)

	n, err := b.Purge()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, statErr := os.Stat(filepath.Join(dir, ".abc.tmp"))
	assert.True(t, os.IsNotExist(statErr), "purge removes leftover temp files")
	_, statErr = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, statErr, "purge leaves foreign files alone")
}

func TestFileBackend_MissingDirectoryIsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	require.NoError(t, b.Scan(func(Record) error {
		t.Fatal("no records expected")
		return nil
	}))
	n, err := b.Purge()
	require.NoError(t, err)
	assert.Zero(t, n)

	// Writes recreate the directory.
	require.NoError(t, b.Write(HashKey("a"), []byte("a")))
}

func TestSQLiteBackend_TablesAreIsolated(t *testing.T) {
	db, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = closeSQLite(db) }()

	videos, err := NewSQLiteBackend(db, "cache_videos")
	require.NoError(t, err)
	comments, err := NewSQLiteBackend(db, "cache_comments")
	require.NoError(t, err)

	key := HashKey("same-id")
	require.NoError(t, videos.Write(key, []byte("video")))

	_, err = comments.Read(key)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, "sqlite:cache_videos", videos.Location())
}

func TestNewSQLiteBackend_Validation(t *testing.T) {
	_, err := NewSQLiteBackend(nil, "t")
	require.Error(t, err)

	db, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = closeSQLite(db) }()
	_, err = NewSQLiteBackend(db, "")
	require.Error(t, err)
}
