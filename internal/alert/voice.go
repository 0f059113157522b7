package alert

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// VoiceSink speaks the alert message through a text-to-speech command.
type VoiceSink struct {
	command string
	args    []string
}

// NewVoiceSink splits command on whitespace; the message is passed as the final argument.
func NewVoiceSink(command string) *VoiceSink {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"espeak"}
	}
	return &VoiceSink{command: fields[0], args: fields[1:]}
}

// Name implements contract.AlertSink.
func (s *VoiceSink) Name() schema.AlertChannel { return schema.VoiceChannel }

// Send implements contract.AlertSink.
func (s *VoiceSink) Send(ctx context.Context, alert schema.Alert) error {
	args := append(append([]string{}, s.args...), alert.Message)
	out, err := exec.CommandContext(ctx, s.command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", s.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Close implements contract.AlertSink.
func (s *VoiceSink) Close() error { return nil }
