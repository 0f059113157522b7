// Package alert delivers anomaly notifications over console, email, voice, MQTT and Kafka.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Title is the headline of every anomaly alert.
const Title = "Sensor Anomaly Detected"

// New builds the alert for an anomalous verdict.
func New(v schema.Verdict, raisedAt time.Time) schema.Alert {
	return schema.Alert{
		ID:                  uuid.NewString(),
		Title:               Title,
		Message:             FormatMessage(v.WindowEnd, v.ReconstructionError),
		WindowEnd:           v.WindowEnd,
		ReconstructionError: v.ReconstructionError,
		Threshold:           v.Threshold,
		RaisedAt:            raisedAt,
	}
}

// FormatMessage renders the alert body.
func FormatMessage(at time.Time, reconstructionError float64) string {
	return fmt.Sprintf("At %s | Reconstruction Error: %.4f", at.Format(contract.DateTimeFormat), reconstructionError)
}
