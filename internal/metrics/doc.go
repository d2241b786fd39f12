// Package metrics provides the observability hooks for document generation and
// the live-reload channel.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	gen := generator.New(cfg, pipelines, generator.WithRecorder(rec))
//
// PrometheusRecorder registers its collectors on a caller supplied registry and
// HTTPHandler exposes that registry for scraping. The dev server mounts the
// handler when metrics are enabled in the configuration.
package metrics
