package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"securechain-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityEventRepository(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 9, 7, 30, 5, 0, time.UTC)

	t.Run("Should insert the event with nullable columns", func(t *testing.T) {
		db := &fakeDB{}
		persist := NewSecurityEventRepository(db).CreatePersistFunc()

		err := persist(ctx, security.SecurityEvent{
			Timestamp:   ts,
			Service:     "securechain-api",
			Environment: "test",
			Level:       "warn",
			Event:       security.EventRateLimitTriggered,
			Severity:    security.SeverityWARN,
			IP:          "203.0.113.1",
			Details:     map[string]interface{}{"endpoint": "/v1/contact"},
		})

		require.NoError(t, err)
		require.Len(t, db.calls, 1)
		assert.Contains(t, db.calls[0].sql, "INSERT INTO security_events")

		args := db.calls[0].args
		require.Len(t, args, 12)
		assert.Equal(t, "rate_limit_triggered", args[0])
		assert.Equal(t, "WARN", args[1])
		assert.Nil(t, args[5])
		assert.Equal(t, "203.0.113.1", *args[7].(*string))
		assert.JSONEq(t, `{"endpoint":"/v1/contact"}`, string(args[10].([]byte)))
		assert.Equal(t, ts, args[11])
	})

	t.Run("Should store null details as JSON null", func(t *testing.T) {
		db := &fakeDB{}
		require.NoError(t, NewSecurityEventRepository(db).PersistEvent(ctx, security.SecurityEvent{Event: security.EventServerError}))
		assert.Equal(t, "null", string(db.calls[0].args[10].([]byte)))
	})

	t.Run("Should wrap database errors", func(t *testing.T) {
		db := &fakeDB{err: errors.New("connection reset")}
		err := NewSecurityEventRepository(db).PersistEvent(ctx, security.SecurityEvent{Event: security.EventServerError})
		assert.ErrorContains(t, err, "failed to persist security event")
	})
}
