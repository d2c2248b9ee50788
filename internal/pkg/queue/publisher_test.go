package queue

import (
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	payload := map[string]string{"confirmation_code": "0123456789"}

	msg, err := NewMessage("booking.reserved", payload)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, "booking.reserved", msg.Type)
	assert.NotEmpty(t, msg.MessageId)
	assert.False(t, msg.Timestamp.IsZero())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewMessageRejectsUnencodablePayload(t *testing.T) {
	_, err := NewMessage("booking.reserved", make(chan int))
	assert.Error(t, err)
}

func TestNewMessageIDsAreUnique(t *testing.T) {
	a, err := NewMessage("x", 1)
	require.NoError(t, err)
	b, err := NewMessage("x", 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.MessageId, b.MessageId)
}
