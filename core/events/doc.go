// Package events defines the telemetry emitted by the fleet store.
//
// Every mutation attempt produces one MutationEvent, successful or not. The
// store hands events to a Recorder and never depends on what the recorder
// does with them.
package events
