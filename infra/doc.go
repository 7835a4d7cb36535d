// Package infra contains the technical adapters behind the fleet: logging,
// metrics sinks, the mutation journal, MQTT publishing, Sentry and the HTTP
// client store. They depend only on interfaces defined in core.
package infra
