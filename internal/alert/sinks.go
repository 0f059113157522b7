package alert

import (
	"errors"

	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// BuildSinks creates a sink for every enabled channel. Email without credentials is
// disabled with a warning. Broker connection failures are returned.
func BuildSinks(cfg contract.AlertConfig) ([]contract.AlertSink, error) {
	var sinks []contract.AlertSink
	for _, ch := range cfg.Channels {
		switch ch {
		case schema.ConsoleChannel:
			sinks = append(sinks, NewConsoleSink(nil))
		case schema.EmailChannel:
			sink, ok := NewEmailSink(cfg)
			if !ok {
				contract.Logger().Warn("email alerts disabled: sender, password and receiver must all be set")
				continue
			}
			sinks = append(sinks, sink)
		case schema.VoiceChannel:
			sinks = append(sinks, NewVoiceSink(cfg.VoiceCommand))
		case schema.MQTTChannel:
			sink, err := NewMQTTSink(cfg)
			if err != nil {
				return nil, errors.Join(err, closeAll(sinks))
			}
			sinks = append(sinks, sink)
		case schema.KafkaChannel:
			sinks = append(sinks, NewKafkaSink(cfg))
		default:
			contract.Logger().Warn("unknown alert channel ignored", zap.String("channel", string(ch)))
		}
	}
	return sinks, nil
}

func closeAll(sinks []contract.AlertSink) error {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
