// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failed"

	IncHuntCreated()
	IncHuntUpdated()
	IncHuntDeleted()

	IncUploadStored()
	IncUploadFailed()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
