package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseSyncMessage asks the ledger worker to mirror one expense to the
// family spreadsheet. Only the id travels; the worker fetches the row from
// the ledger.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{ID: id, Timestamp: time.Now()}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delivery message kinds.
const (
	KindReport       = "report"
	KindNotification = "notification"
)

// DeliveryMessage is an outbound text for the delivery collaborator to send
// to one recipient: a periodic report or a family notification about a
// freshly recorded expense.
type DeliveryMessage struct {
	RecipientID int64     `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewDeliveryMessage(recipientID int64, kind, text string) *DeliveryMessage {
	return &DeliveryMessage{
		RecipientID: recipientID,
		Kind:        kind,
		Text:        text,
		Timestamp:   time.Now(),
	}
}

func (m *DeliveryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DeliveryMessageFromJSON(data []byte) (*DeliveryMessage, error) {
	var msg DeliveryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
