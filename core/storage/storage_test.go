package storage

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	_, err := b.Read()
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Write([]byte(`[]`)))
	got, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, b.Write([]byte(`[{"position": 1}]`)))
	got, err = b.Read()
	require.NoError(t, err)
	assert.Equal(t, `[{"position": 1}]`, string(got))
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	exerciseBackend(t, NewFileBackend(path))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"position": 1}]`, string(onDisk))
}

func TestMemoryBackendCopies(t *testing.T) {
	m := NewMemoryBackend()
	exerciseBackend(t, m)

	buf := []byte("abc")
	require.NoError(t, m.Write(buf))
	buf[0] = 'x'
	got, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLevelDBBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := NewLevelDBBackend(path)
	require.NoError(t, err)
	exerciseBackend(t, db)

	require.NoError(t, db.Delete())
	_, err = db.Read()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Write([]byte("persisted")))
	require.NoError(t, db.Close())

	reopened, err := NewLevelDBBackend(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Read()
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestEncryptedBackend(t *testing.T) {
	inner := NewMemoryBackend()
	enc, err := NewEncryptedBackend(inner, testKey)
	require.NoError(t, err)
	exerciseBackend(t, enc)

	raw, err := inner.Read()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "position")

	other, err := NewEncryptedBackend(inner, bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)
	_, err = other.Read()
	assert.Error(t, err)

	_, err = NewEncryptedBackend(inner, []byte("short"))
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestKeyFromEnv(t *testing.T) {
	t.Setenv(DEKEnv, "")
	_, err := KeyFromEnv()
	assert.ErrorIs(t, err, ErrNoKey)

	t.Setenv(DEKEnv, "not base64!")
	_, err = KeyFromEnv()
	assert.ErrorIs(t, err, ErrNoKey)

	t.Setenv(DEKEnv, base64.StdEncoding.EncodeToString([]byte("too short")))
	_, err = KeyFromEnv()
	assert.ErrorIs(t, err, ErrNoKey)

	t.Setenv(DEKEnv, base64.StdEncoding.EncodeToString(testKey))
	key, err := KeyFromEnv()
	require.NoError(t, err)
	assert.Equal(t, testKey, key)
}

func TestDecryptShortCiphertext(t *testing.T) {
	_, err := Decrypt(testKey, []byte{1, 2, 3})
	assert.Error(t, err)
}
