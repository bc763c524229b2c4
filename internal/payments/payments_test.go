package payments

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	key := []byte("webhook-key")
	body := []byte("pi_ABCDEF01")

	sig := Hmac256(body, key)
	assert.True(t, VerifySignature(body, sig, key))
	assert.False(t, VerifySignature(body, sig, []byte("other-key")))
	assert.False(t, VerifySignature([]byte("pi_tampered"), sig, key))
}

func TestHashSecretRoundTrip(t *testing.T) {
	hash, err := HashSecret("ps_SECRET")
	require.NoError(t, err)
	assert.NotEqual(t, "ps_SECRET", hash)

	assert.True(t, CheckSecret(hash, "ps_SECRET"))
	assert.False(t, CheckSecret(hash, "ps_WRONG"))
}

func TestVerifyConfirmationCode(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	d := &DevPay{redis: db}
	ctx := context.Background()

	redisMock.ExpectHGet("intent:pi_1", "confirm_code").SetVal("428190")
	assert.True(t, d.verifyConfirmationCode(ctx, "pi_1", "428190"))

	redisMock.ExpectHGet("intent:pi_1", "confirm_code").SetVal("428190")
	assert.False(t, d.verifyConfirmationCode(ctx, "pi_1", "000000"))

	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestVerifyConfirmationCode_MissingIntent(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	d := &DevPay{redis: db}
	ctx := context.Background()

	// an empty code never hits Redis
	assert.False(t, d.verifyConfirmationCode(ctx, "pi_1", ""))

	// expired or unknown intents fail the check
	redisMock.ExpectHGet("intent:pi_gone", "confirm_code").RedisNil()
	assert.False(t, d.verifyConfirmationCode(ctx, "pi_gone", "428190"))

	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestDecodeNotification_Map(t *testing.T) {
	n, err := decodeNotification(map[string]any{
		"payment_ref": "pi_1",
		"status":      "succeeded",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", n.PaymentRef)

	ev, err := n.toEvent()
	require.NoError(t, err)
	assert.Equal(t, EventSucceeded, ev.Kind)
}

func TestDecodeNotification_String(t *testing.T) {
	n, err := decodeNotification(`{"payment_ref":"pi_2","status":"refunded"}`)
	require.NoError(t, err)

	ev, err := n.toEvent()
	require.NoError(t, err)
	assert.Equal(t, EventRefunded, ev.Kind)
}

func TestDecodeNotification_Invalid(t *testing.T) {
	_, err := decodeNotification(42)
	assert.Error(t, err)

	_, err = decodeNotification(map[string]any{"status": "succeeded"})
	assert.Error(t, err, "payment_ref is required")

	n, err := decodeNotification(map[string]any{"payment_ref": "pi_3", "status": "unknown"})
	require.NoError(t, err)
	_, err = n.toEvent()
	assert.Error(t, err)
}
