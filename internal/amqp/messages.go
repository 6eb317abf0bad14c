package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert channels.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// AlertMessage is the envelope the transport layer publishes for every
// raw bank notification. The text is carried verbatim; parsing happens on
// the consumer side.
type AlertMessage struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewAlertMessage creates an envelope with a fresh message ID.
func NewAlertMessage(channel, text string) *AlertMessage {
	return &AlertMessage{
		ID:         uuid.NewString(),
		Channel:    channel,
		Text:       text,
		ReceivedAt: time.Now().UTC(),
	}
}

// Validate checks the envelope before publishing or dispatching.
func (m *AlertMessage) Validate() error {
	if m.Channel != ChannelSMS && m.Channel != ChannelEmail {
		return fmt.Errorf("unknown alert channel %q", m.Channel)
	}
	if m.Text == "" {
		return fmt.Errorf("empty alert text")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON creates a message from JSON bytes
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
