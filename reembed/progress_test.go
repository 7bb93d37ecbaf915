package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Increment(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "user_1", 100, 10)

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	time.Sleep(time.Millisecond)
	snap := tracker.Snapshot()
	assert.Equal(t, 100, snap.Current)
	assert.Greater(t, snap.Elapsed, time.Duration(0))

	output := buf.String()
	assert.Contains(t, output, "user_1: 100/100 chunks")
	assert.Contains(t, output, "100.0%")
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "ns", 100, 50)

	tracker.Start()
	tracker.Increment(10)
	assert.Empty(t, buf.String(), "below the interval nothing is printed")

	tracker.Increment(40)
	assert.Equal(t, 1, strings.Count(buf.String(), "\r"))
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "ns", 100, 10)

	tracker.Start()
	tracker.Increment(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "ns", 0, 10)

	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0 chunks (100.0%)")
}

func TestProgressTracker_IncrementBeyondTotal(t *testing.T) {
	tracker := NewProgressTracker(nil, "ns", 100, 10)

	tracker.Start()
	tracker.Increment(150)

	assert.Equal(t, 100, tracker.Snapshot().Current)
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "ns", 100, 10)

	tracker.Increment(50)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Snapshot().Elapsed)
}

func TestProgress_Rate(t *testing.T) {
	p := Progress{Current: 50, Total: 100, Elapsed: 2 * time.Second}
	assert.InDelta(t, 25.0, p.Rate(), 0.001)
	assert.InDelta(t, 50.0, p.Percent(), 0.001)
	assert.Zero(t, Progress{}.Rate())
}
