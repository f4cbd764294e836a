package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered uint64
	LoginsSucceeded uint64
	LoginsFailed    uint64
	HuntsCreated    uint64
	HuntsUpdated    uint64
	HuntsDeleted    uint64
	UploadsStored   uint64
	UploadsFailed   uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	usersRegistered uint64
	loginsSucceeded uint64
	loginsFailed    uint64
	huntsCreated    uint64
	huntsUpdated    uint64
	huntsDeleted    uint64
	uploadsStored   uint64
	uploadsFailed   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered: atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded: atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:    atomic.LoadUint64(&m.loginsFailed),
		HuntsCreated:    atomic.LoadUint64(&m.huntsCreated),
		HuntsUpdated:    atomic.LoadUint64(&m.huntsUpdated),
		HuntsDeleted:    atomic.LoadUint64(&m.huntsDeleted),
		UploadsStored:   atomic.LoadUint64(&m.uploadsStored),
		UploadsFailed:   atomic.LoadUint64(&m.uploadsFailed),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for the given outcome.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncHuntCreated increments the hunt created counter.
func (m *InMemoryRecorder) IncHuntCreated() {
	atomic.AddUint64(&m.huntsCreated, 1)
}

// IncHuntUpdated increments the hunt updated counter.
func (m *InMemoryRecorder) IncHuntUpdated() {
	atomic.AddUint64(&m.huntsUpdated, 1)
}

// IncHuntDeleted increments the hunt deleted counter.
func (m *InMemoryRecorder) IncHuntDeleted() {
	atomic.AddUint64(&m.huntsDeleted, 1)
}

// IncUploadStored increments the stored upload counter.
func (m *InMemoryRecorder) IncUploadStored() {
	atomic.AddUint64(&m.uploadsStored, 1)
}

// IncUploadFailed increments the failed upload counter.
func (m *InMemoryRecorder) IncUploadFailed() {
	atomic.AddUint64(&m.uploadsFailed, 1)
}
