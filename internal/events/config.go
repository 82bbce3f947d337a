package events

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads YAML from file path. If path is empty, returns zero value.
func LoadConfig(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	return c, err
}

// FromConfig builds a dispatcher with every enabled sink. Failed events are
// logged to logger.
func FromConfig(c Config, logger *zap.SugaredLogger) (*Dispatcher, error) {
	var sinks []Sink
	if wh := NewWebhookSink(c.Sinks.Webhook); wh != nil {
		sinks = append(sinks, wh)
	}
	rs, err := NewRedisSink(c.Sinks.Redis)
	if err != nil {
		return nil, err
	}
	if rs != nil {
		sinks = append(sinks, rs)
	}
	return NewDispatcher(c, LogDLQ{Logger: logger}, sinks...), nil
}
