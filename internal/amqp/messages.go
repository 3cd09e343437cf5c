package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerChangedMessage announces that one record of a user's ledger was
// created, updated or deleted. Consumers reload what they need from the
// store; the message carries no record content.
type LedgerChangedMessage struct {
	UserID    string    `json:"user_id"`
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrMalformedMessage = errors.New("malformed ledger change message")

func NewLedgerChangedMessage(userID, entity, op, id string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		UserID:    userID,
		Entity:    entity,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message. User id and entity are
// required.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	if msg.UserID == "" || msg.Entity == "" {
		return nil, ErrMalformedMessage
	}
	return &msg, nil
}
