package metrics

import (
	"testing"
	"time"
)

func TestCollector_Empty(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	if snap.StreamCount != 0 {
		t.Errorf("StreamCount = %d, want 0", snap.StreamCount)
	}
	if snap.MinTimeMs != 0 || snap.MaxTimeMs != 0 {
		t.Errorf("timing stats should be zero when nothing was recorded")
	}
	if len(snap.Events) != 0 {
		t.Errorf("Events = %v, want empty", snap.Events)
	}
}

func TestCollector_RecordStream(t *testing.T) {
	c := NewCollector()
	c.RecordStream(100 * time.Millisecond)
	c.RecordStream(300 * time.Millisecond)

	snap := c.Snapshot()
	if snap.StreamCount != 2 {
		t.Errorf("StreamCount = %d, want 2", snap.StreamCount)
	}
	if snap.TotalTimeMs != 400 {
		t.Errorf("TotalTimeMs = %d, want 400", snap.TotalTimeMs)
	}
	if snap.AvgTimeMs != 200 {
		t.Errorf("AvgTimeMs = %f, want 200", snap.AvgTimeMs)
	}
	if snap.MinTimeMs != 100 {
		t.Errorf("MinTimeMs = %d, want 100", snap.MinTimeMs)
	}
	if snap.MaxTimeMs != 300 {
		t.Errorf("MaxTimeMs = %d, want 300", snap.MaxTimeMs)
	}
}

func TestCollector_RecordEvent(t *testing.T) {
	c := NewCollector()
	c.RecordEvent("text-delta", 3)
	c.RecordEvent("text-delta", 2)
	c.RecordEvent("message-end", 0)

	snap := c.Snapshot()
	if snap.Events["text-delta"] != 2 {
		t.Errorf("text-delta count = %d, want 2", snap.Events["text-delta"])
	}
	if snap.Events["message-end"] != 1 {
		t.Errorf("message-end count = %d, want 1", snap.Events["message-end"])
	}
	if snap.DeltaBytes != 5 {
		t.Errorf("DeltaBytes = %d, want 5", snap.DeltaBytes)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := NewCollector()
	c.RecordEvent("done", 0)

	snap := c.Snapshot()
	snap.Events["done"] = 99

	if got := c.Snapshot().Events["done"]; got != 1 {
		t.Errorf("collector state mutated through snapshot: %d", got)
	}
}
