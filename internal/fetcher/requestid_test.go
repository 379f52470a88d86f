package fetcher

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestRequestID(t *testing.T) {
	now := func() time.Time { return time.Unix(0, 0x17d2c4a8f3b) }

	t.Run("random bytes", func(t *testing.T) {
		id := requestID(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x03}), now)
		require.Equal(t, "deadbeef00010203", id)
	})

	t.Run("reader fails", func(t *testing.T) {
		require.Equal(t, "17d2c4a8f3b", requestID(failingReader{}, now))
	})

	t.Run("short read", func(t *testing.T) {
		require.Equal(t, "17d2c4a8f3b", requestID(bytes.NewReader([]byte{0x01, 0x02}), now))
	})
}
