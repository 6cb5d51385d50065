package channel

import (
	"context"
	"sync"
	"time"

	"armonia.dev/intercom/internal/models"
)

// RecordedSend captures one SendMessage call made against a MockAdapter.
type RecordedSend struct {
	To   string
	Text string
	Opts *SendOptions
}

// MockAdapter is an in-memory adapter for tests. It records every send and
// returns scripted results.
type MockAdapter struct {
	mu         sync.Mutex
	sends      []RecordedSend
	parseCalls int

	Channel    models.NotificationChannel
	Buttons    bool
	NextResult SendResult
	VerifyOK   bool
	ParseEvent *Event
	ParseErr   error
}

// NewMockAdapter creates a mock for the given channel that succeeds by
// default.
func NewMockAdapter(ch models.NotificationChannel) *MockAdapter {
	return &MockAdapter{
		Channel:    ch,
		Buttons:    true,
		NextResult: SendResult{Success: true, MessageID: "mock-message-id"},
		VerifyOK:   true,
	}
}

func (m *MockAdapter) Name() models.NotificationChannel { return m.Channel }

func (m *MockAdapter) SupportsButtons() bool { return m.Buttons }

func (m *MockAdapter) SendMessage(ctx context.Context, to, text string, opts *SendOptions) SendResult {
	m.mu.Lock()
	m.sends = append(m.sends, RecordedSend{To: to, Text: text, Opts: opts})
	m.mu.Unlock()
	return m.NextResult
}

func (m *MockAdapter) VerifyWebhook(payload []byte, signature string) bool {
	return m.VerifyOK
}

func (m *MockAdapter) ParseResponse(payload []byte) (*Event, error) {
	m.mu.Lock()
	m.parseCalls++
	m.mu.Unlock()
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	if m.ParseEvent != nil {
		return m.ParseEvent, nil
	}
	return &Event{
		From:      "mock-sender",
		Text:      string(payload),
		Timestamp: time.Now().UTC(),
		MessageID: "mock-inbound-id",
		Kind:      KindText,
	}, nil
}

// ParseCalls returns how many times ParseResponse was invoked.
func (m *MockAdapter) ParseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parseCalls
}

// Sends returns a copy of the recorded sends.
func (m *MockAdapter) Sends() []RecordedSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedSend, len(m.sends))
	copy(out, m.sends)
	return out
}

var _ Adapter = (*MockAdapter)(nil)
