package alert

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// MockSink is a mock implementation of AlertSink for testing.
type MockSink struct {
	mock.Mock
}

var _ contract.AlertSink = &MockSink{} // Compile-time check

// Name implements the AlertSink interface.
func (m *MockSink) Name() schema.AlertChannel {
	return m.Called().Get(0).(schema.AlertChannel)
}

// Send implements the AlertSink interface.
func (m *MockSink) Send(ctx context.Context, alert schema.Alert) error {
	return m.Called(ctx, alert).Error(0)
}

// Close implements the AlertSink interface.
func (m *MockSink) Close() error {
	return m.Called().Error(0)
}

// MockAlerter is a mock implementation of Alerter for testing.
type MockAlerter struct {
	mock.Mock
}

var _ contract.Alerter = &MockAlerter{} // Compile-time check

// Raise implements the Alerter interface.
func (m *MockAlerter) Raise(ctx context.Context, alert schema.Alert) {
	m.Called(ctx, alert)
}
