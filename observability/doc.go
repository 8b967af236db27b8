// Package observability carries the service's logging, metrics and tracing helpers.
//
// Logging is log/slog with the request logger travelling in the context
// (NewContext/FromContext). Metrics are Prometheus collectors registered on a
// caller-supplied registerer so tests can use an isolated registry. Tracing
// goes through the OpenTelemetry API; SetupTracing exports spans over OTLP,
// otherwise they are no-ops.
package observability
