package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	t.Run("put then get returns the stored bytes", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		err := s.PutObject(context.Background(), "documents/ab/fp.pdf", "application/pdf", []byte("%PDF-1.7"))
		require.NoError(t, err)

		content, err := s.GetObject(context.Background(), "documents/ab/fp.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7"), content)
	})

	t.Run("get of a missing key fails", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		content, err := s.GetObject(context.Background(), "documents/missing.pdf")
		assert.Nil(t, content)
		assert.ErrorContains(t, err, "object not found")
	})

	t.Run("stored content is copied, not aliased", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		original := []byte("original")
		require.NoError(t, s.PutObject(context.Background(), "key", "text/plain", original))
		original[0] = 'X'

		content, err := s.GetObject(context.Background(), "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), content)
	})

	t.Run("ObjectExists reflects stored state", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		exists, err := s.ObjectExists(context.Background(), "key")
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, s.PutObject(context.Background(), "key", "text/plain", []byte("x")))

		exists, err = s.ObjectExists(context.Background(), "key")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("DeleteObject removes the object", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		require.NoError(t, s.PutObject(context.Background(), "key", "text/plain", []byte("x")))
		require.NoError(t, s.DeleteObject(context.Background(), "key"))

		exists, err := s.ObjectExists(context.Background(), "key")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Zero(t, s.Len())
	})

	t.Run("GenerateDownloadURL embeds the key and expiry", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "certificates/ref.pdf", time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "/download/certificates/ref.pdf")
		assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, time.Second)
	})

	t.Run("empty key is rejected everywhere", func(t *testing.T) {
		s := NewMemoryObjectStorage()

		assert.Error(t, s.PutObject(context.Background(), "", "text/plain", nil))
		_, err := s.GetObject(context.Background(), "")
		assert.Error(t, err)
		assert.Error(t, s.DeleteObject(context.Background(), ""))
		_, err = s.ObjectExists(context.Background(), "")
		assert.Error(t, err)
		_, _, err = s.GenerateDownloadURL(context.Background(), "", time.Minute)
		assert.Error(t, err)
	})
}
