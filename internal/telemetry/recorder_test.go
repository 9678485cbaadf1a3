package telemetry

import (
	"errors"
	"testing"
)

// TestRecorderCountsOutcomes verifies resolved and rejected jobs land in the
// right counters.
func TestRecorderCountsOutcomes(t *testing.T) {
	r := NewRecorder(nil)

	job := r.StartJob("recognize", "j1")
	job.RecordProgress()
	job.RecordProgress()
	job.Finish(nil)

	failed := r.StartJob("detect", "j2")
	failed.Finish(errors.New("boom"))

	snap := r.Snapshot()
	if snap.TotalJobs != 2 {
		t.Errorf("TotalJobs = %d, want 2", snap.TotalJobs)
	}
	if snap.ActiveJobs != 0 {
		t.Errorf("ActiveJobs = %d, want 0", snap.ActiveJobs)
	}
	if snap.TotalResolved != 1 {
		t.Errorf("TotalResolved = %d, want 1", snap.TotalResolved)
	}
	if snap.TotalRejected != 1 {
		t.Errorf("TotalRejected = %d, want 1", snap.TotalRejected)
	}
	if snap.TotalProgress != 2 {
		t.Errorf("TotalProgress = %d, want 2", snap.TotalProgress)
	}
}

// TestFinishIsIdempotent verifies a double Finish counts one outcome.
func TestFinishIsIdempotent(t *testing.T) {
	r := NewRecorder(nil)

	job := r.StartJob("load", "j1")
	job.Finish(nil)
	job.Finish(errors.New("late"))

	snap := r.Snapshot()
	if snap.TotalResolved != 1 || snap.TotalRejected != 0 {
		t.Errorf("snapshot = %+v, want one resolved and no rejected", snap)
	}
	if snap.ActiveJobs != 0 {
		t.Errorf("ActiveJobs = %d, want 0", snap.ActiveJobs)
	}
}

// TestNilRecorderIsSafe verifies the nil receiver fast paths.
func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder

	job := r.StartJob("load", "j1")
	job.RecordProgress()
	job.Finish(nil)

	if snap := r.Snapshot(); snap != (Snapshot{}) {
		t.Errorf("nil recorder snapshot = %+v, want zero", snap)
	}
}
