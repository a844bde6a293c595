// Package metrics records step and operation outcomes for brokermake runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs nil checks. When a metrics file is configured
// the CLI swaps in a PrometheusRecorder and writes the gathered families to a
// textfile after the operation finishes, in the format node_exporter's
// textfile collector reads.
package metrics
