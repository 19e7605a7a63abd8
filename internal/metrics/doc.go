// Package metrics provides build and stage metrics for pluginbuild.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites.
// PrometheusRecorder registers its collectors on a private registry; a CLI run
// exports them once at the end in the node-exporter textfile format, which
// suits a short-lived build tool better than a scrape endpoint.
package metrics
