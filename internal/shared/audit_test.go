package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOccurredAtKeepsExplicitTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := AuditLog{Action: "posting.post", Entity: "journal_entry", EntityID: "1", At: at}

	require.Equal(t, at, log.occurredAt())
}

func TestOccurredAtDefaultsZeroTimeToNow(t *testing.T) {
	log := AuditLog{Action: "posting.post", Entity: "journal_entry", EntityID: "1"}

	got := log.occurredAt()
	require.False(t, got.IsZero())
	require.WithinDuration(t, time.Now().UTC(), got, time.Minute)
}
