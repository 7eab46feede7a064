package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/patient-pulse/cache"
	"github.com/maastricht-university/patient-pulse/catalog"
	cfg "github.com/maastricht-university/patient-pulse/config"
	"github.com/maastricht-university/patient-pulse/orchestrator"
)

// app is the wired session stack shared by serve, play and replay.
type app struct {
	cat      *catalog.Catalog
	cache    *cache.Cache
	pipeline *orchestrator.Pipeline
	mgr      *orchestrator.Manager
}

func build(conf *cfg.Root, log logrus.FieldLogger) (*app, error) {
	cat, err := catalog.Open(conf.Paths.Catalog)
	if err != nil {
		return nil, err
	}
	a := &app{cat: cat}
	if conf.Paths.Cache != "" {
		if a.cache, err = cache.Open(conf.Paths.Cache, log.WithField("component", "cache")); err != nil {
			return nil, err
		}
	}
	a.pipeline = orchestrator.NewPipeline(conf, a.cache, log.WithField("component", "pipeline"))
	a.mgr = orchestrator.NewManager(a.pipeline, cat, orchestrator.Options{
		Wheel:      conf.Wheel.Options,
		Transition: conf.Wheel.Transition,
		Outputs:    conf.Paths.Outputs,
	}, log.WithField("component", "session"))
	return a, nil
}

func (a *app) Close() {
	a.mgr.Close()
	if a.cache != nil {
		a.cache.Close()
	}
}
