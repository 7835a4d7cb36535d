// Package fleet owns the authoritative list of robots.
//
// A Store is the single writer path for the fleet: callers mutate robots
// only through its operations and observe changes through Subscribe. Each
// successful mutation replaces the whole snapshot, then notifies observers
// synchronously in subscription order. Every attempt, successful or not, is
// reported to an events.Recorder.
//
// Two implementations exist: MemoryStore in this package and the HTTP backed
// RemoteStore in infra/remote. Both honour the same result and error
// semantics; the remote one may additionally fail with network errors.
package fleet
