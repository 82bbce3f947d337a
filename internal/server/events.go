package server

import (
	"github.com/jlvsolutions/WorldCities-sub000/internal/events"
	"github.com/jlvsolutions/WorldCities-sub000/internal/logger"
)

// initEvents builds the record change dispatcher from the YAML file at path.
// An empty path yields a dispatcher without sinks.
func initEvents(path string) (*events.Dispatcher, error) {
	conf, err := events.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	d, err := events.FromConfig(conf, logger.L)
	if err != nil {
		return nil, err
	}
	if d.Len() > 0 {
		logger.L.Infow("record events enabled", "sinks", d.Len())
	}
	return d, nil
}
