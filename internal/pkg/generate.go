package pkg

import (
	cryptorand "crypto/rand"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// RoomCodeLength is the fixed length of a human-shareable room code.
	RoomCodeLength = 6
)

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // ids are not secrets
	ulidEntropyMu sync.Mutex
)

// NewID returns a lexicographically sortable unique identifier for sessions
// and token subjects.
func NewID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// GenerateRoomCode produces a random uppercase alphanumeric room code.
// Uniqueness against live sessions is the directory's job, not ours.
func GenerateRoomCode() (string, error) {
	buf := make([]byte, RoomCodeLength)
	if _, err := cryptorand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}

	return string(buf), nil
}

// NormalizeRoomCode maps user input onto the stored form: trimmed, uppercase.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
