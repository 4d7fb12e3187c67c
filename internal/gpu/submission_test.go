// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// finishedRecording records a pass with a pipeline and a copy and returns
// the finished recording.
func finishedRecording(t *testing.T, device hal.Device, target *TargetPair) *Recording {
	t.Helper()
	rec, err := NewRecorder(device, "submission_test")
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordPass(target, black, newTestPipeline(t, device), 3, 1); err != nil {
		t.Fatal(err)
	}
	if err := rec.CopyTargetToStaging(target); err != nil {
		t.Fatal(err)
	}
	recording, err := rec.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return recording
}

func TestSubmissionsSubmitAndPoll(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	counting := &countingDevice{Device: device}

	target, _ := NewTargetPair(counting, 64, 64)
	defer target.Destroy(counting)
	subs := NewSubmissions(counting, queue)
	defer subs.Destroy()

	for range 2 {
		if err := subs.Submit(finishedRecording(t, counting, target)); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	if subs.InFlight() != 2 || subs.Submitted() != 2 {
		t.Fatalf("in flight %d, submitted %d", subs.InFlight(), subs.Submitted())
	}

	idle, err := subs.Poll(time.Second)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !idle {
		t.Fatal("noop queue should be idle after one poll")
	}
	if subs.InFlight() != 0 || subs.Completed() != 2 {
		t.Errorf("in flight %d, completed %d", subs.InFlight(), subs.Completed())
	}
	if counting.commandBuffers != 2 || counting.pipelines != 2 {
		t.Errorf("released cmdbufs=%d pipelines=%d, want 2 each",
			counting.commandBuffers, counting.pipelines)
	}
}

func TestSubmissionsPollEmpty(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	idle, err := NewSubmissions(device, queue).Poll(0)
	if err != nil || !idle {
		t.Errorf("Poll() = %v, %v; want true, nil", idle, err)
	}
}

func TestSubmissionsPollPartial(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	counting := &countingDevice{Device: device}
	held := &heldQueue{Queue: queue}

	target, _ := NewTargetPair(device, 64, 64)
	defer target.Destroy(device)
	subs := NewSubmissions(counting, held)
	defer subs.Destroy()

	for range 3 {
		if err := subs.Submit(finishedRecording(t, counting, target)); err != nil {
			t.Fatal(err)
		}
	}

	held.completed = 1
	idle, err := subs.Poll(0)
	if err != nil {
		t.Fatal(err)
	}
	if idle {
		t.Error("queue with work left reported idle")
	}
	if subs.InFlight() != 2 || subs.Completed() != 1 || counting.commandBuffers != 1 {
		t.Errorf("in flight %d, completed %d, freed %d; want 2, 1, 1",
			subs.InFlight(), subs.Completed(), counting.commandBuffers)
	}

	held.completed = 3
	if idle, _ := subs.Poll(0); !idle {
		t.Error("queue should be idle once every index completed")
	}
	if counting.commandBuffers != 3 {
		t.Errorf("freed %d command buffers, want 3", counting.commandBuffers)
	}
}

func TestSubmissionsPollStalled(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	held := &heldQueue{Queue: queue}

	target, _ := NewTargetPair(device, 64, 64)
	defer target.Destroy(device)
	subs := NewSubmissions(device, held)
	defer subs.Destroy()

	if err := subs.Submit(finishedRecording(t, device, target)); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	idle, err := subs.Poll(5 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if idle {
		t.Error("stalled queue reported idle")
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("Poll returned after %v, before its timeout", elapsed)
	}
	if held.polls < 2 {
		t.Errorf("queue polled %d times while waiting", held.polls)
	}

	err = subs.WaitIdle(time.Millisecond)
	if !errors.Is(err, ErrDeviceLost) {
		t.Errorf("WaitIdle: err = %v, want ErrDeviceLost", err)
	}
	if subs.InFlight() != 1 {
		t.Errorf("in flight = %d, want the stalled submission kept", subs.InFlight())
	}
}

func TestSubmissionsPollDeviceLost(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	target, _ := NewTargetPair(device, 64, 64)
	defer target.Destroy(device)
	subs := NewSubmissions(brokenDevice{Device: device}, &heldQueue{Queue: queue})
	defer subs.Destroy()

	if err := subs.Submit(finishedRecording(t, device, target)); err != nil {
		t.Fatal(err)
	}
	_, err := subs.Poll(time.Millisecond)
	if !errors.Is(err, ErrDeviceLost) || !errors.Is(err, errFenceLost) {
		t.Errorf("err = %v, want ErrDeviceLost wrapping the fence error", err)
	}
}

func TestSubmissionsRetire(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	counting := &countingDevice{Device: device}
	held := &heldQueue{Queue: queue}

	subs := NewSubmissions(counting, held)
	defer subs.Destroy()

	// Nothing in flight: destroyed at once.
	idleTarget, _ := NewTargetPair(counting, 64, 64)
	subs.Retire(idleTarget)
	if counting.textures != 1 {
		t.Fatalf("idle retire destroyed %d textures, want 1", counting.textures)
	}

	busy, _ := NewTargetPair(counting, 64, 64)
	for range 2 {
		if err := subs.Submit(finishedRecording(t, counting, busy)); err != nil {
			t.Fatal(err)
		}
	}
	subs.Retire(busy)

	held.completed = 1
	_, _ = subs.Poll(0)
	if counting.textures != 1 {
		t.Fatal("target destroyed while a submission using it is in flight")
	}

	held.completed = 2
	_, _ = subs.Poll(0)
	if counting.textures != 2 {
		t.Errorf("destroyed %d textures after completion, want 2", counting.textures)
	}
}

func TestSubmissionsWaitIdle(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	counting := &countingDevice{Device: device}

	target, _ := NewTargetPair(device, 64, 64)
	defer target.Destroy(device)
	subs := NewSubmissions(counting, queue)

	if err := subs.Submit(finishedRecording(t, device, target)); err != nil {
		t.Fatal(err)
	}
	if err := subs.WaitIdle(time.Second); err != nil {
		t.Fatalf("WaitIdle failed: %v", err)
	}
	if subs.InFlight() != 0 {
		t.Errorf("in flight = %d", subs.InFlight())
	}

	subs.Destroy()
	subs.Destroy()
	if counting.fences != 0 {
		t.Errorf("destroyed %d fences for a tracker that never waited", counting.fences)
	}
}
