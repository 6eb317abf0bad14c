package amqp

import (
	"testing"
)

func TestNewAlertMessage(t *testing.T) {
	msg := NewAlertMessage(ChannelSMS, "debited $20 at Grocer")

	if msg.ID == "" {
		t.Error("expected a generated message ID")
	}
	if msg.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to be set")
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	other := NewAlertMessage(ChannelEmail, "another alert")
	if other.ID == msg.ID {
		t.Error("message IDs should be unique")
	}
}

func TestAlertMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     AlertMessage
		wantErr bool
	}{
		{"sms", AlertMessage{Channel: ChannelSMS, Text: "x"}, false},
		{"email", AlertMessage{Channel: ChannelEmail, Text: "x"}, false},
		{"unknown channel", AlertMessage{Channel: "pigeon", Text: "x"}, true},
		{"empty text", AlertMessage{Channel: ChannelSMS, Text: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAlertMessageJSONRoundTrip(t *testing.T) {
	msg := NewAlertMessage(ChannelEmail, "You were credited $50.23 from PAYPAL")

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := AlertMessageFromJSON(body)
	if err != nil {
		t.Fatalf("AlertMessageFromJSON: %v", err)
	}
	if got.ID != msg.ID || got.Channel != msg.Channel || got.Text != msg.Text {
		t.Errorf("round trip mismatch: %+v vs %+v", got, msg)
	}
	if !got.ReceivedAt.Equal(msg.ReceivedAt) {
		t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, msg.ReceivedAt)
	}
}

func TestAlertMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := AlertMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
