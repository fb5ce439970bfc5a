// Package telemetry observes callback invocations. Metrics exports call
// counts, durations and log channel volume to Prometheus; Tracer records an
// OpenTelemetry span per call. Both implement callback.Observer and plug
// into a registry or host with WithObserver.
package telemetry
