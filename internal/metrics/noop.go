package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncHuntCreated is a no-op.
func (n *NoopRecorder) IncHuntCreated() {}

// IncHuntUpdated is a no-op.
func (n *NoopRecorder) IncHuntUpdated() {}

// IncHuntDeleted is a no-op.
func (n *NoopRecorder) IncHuntDeleted() {}

// IncUploadStored is a no-op.
func (n *NoopRecorder) IncUploadStored() {}

// IncUploadFailed is a no-op.
func (n *NoopRecorder) IncUploadFailed() {}
