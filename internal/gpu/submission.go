// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// pollTick bounds a single sleep while Poll waits for the queue.
const pollTick = time.Millisecond

// submission is one command buffer on the queue and the submission index
// the queue assigned to it.
type submission struct {
	index uint64
	rec   *Recording
}

// Submissions tracks command buffers that were enqueued but whose
// completion the host has not observed yet.
//
// Submit is fire-and-forget. Poll is the progress hook: each call compares
// the queue's completed submission index against the in-flight list,
// waiting at most the given timeout, and releases everything whose
// execution has finished. Because all work goes through one queue,
// completion is observed in submission order.
type Submissions struct {
	device hal.Device
	queue  hal.Queue

	// health is a fence that is never submitted. Querying it surfaces a
	// lost device, which the submission index alone cannot report.
	health hal.Fence

	pending   []*submission
	submitted uint64
	completed uint64
}

// NewSubmissions creates an empty tracker for the given device and queue.
func NewSubmissions(device hal.Device, queue hal.Queue) *Submissions {
	return &Submissions{device: device, queue: queue}
}

// Submit enqueues the recording and returns without waiting. Ownership of
// rec passes to the tracker, also on error.
func (s *Submissions) Submit(rec *Recording) error {
	index, err := s.queue.Submit([]hal.CommandBuffer{rec.CommandBuffer})
	if err != nil {
		rec.Release(s.device)
		return fmt.Errorf("submit: %w", err)
	}

	s.pending = append(s.pending, &submission{index: index, rec: rec})
	s.submitted++
	slogger().Debug("gpu: command buffer submitted",
		"index", index, "commands", rec.Commands, "in_flight", len(s.pending))
	return nil
}

// Retire destroys res once every submission enqueued so far has completed.
// With nothing in flight it is destroyed at once.
func (s *Submissions) Retire(res Resource) {
	if len(s.pending) == 0 {
		res.Destroy(s.device)
		return
	}
	s.pending[len(s.pending)-1].rec.Retain(res)
}

// Poll releases completed submissions and reports whether the queue is
// idle. It waits at most timeout for the remaining work. A lost device is
// reported as ErrDeviceLost.
func (s *Submissions) Poll(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		s.retire(s.queue.PollCompleted())
		if len(s.pending) == 0 {
			return true, nil
		}
		if err := s.checkDevice(); err != nil {
			return false, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		time.Sleep(min(pollTick, remaining))
	}
}

// retire releases every submission with an index up to completed.
func (s *Submissions) retire(completed uint64) {
	n := 0
	for n < len(s.pending) && s.pending[n].index <= completed {
		s.pending[n].rec.Release(s.device)
		s.pending[n] = nil
		n++
	}
	if n == 0 {
		return
	}
	s.pending = s.pending[n:]
	s.completed += uint64(n)
}

func (s *Submissions) checkDevice() error {
	if s.health == nil {
		fence, err := s.device.CreateFence()
		if err != nil {
			return fmt.Errorf("%w: create fence: %w", ErrDeviceLost, err)
		}
		s.health = fence
	}
	if _, err := s.device.GetFenceStatus(s.health); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceLost, err)
	}
	return nil
}

// InFlight returns the number of submissions not yet observed complete.
func (s *Submissions) InFlight() int { return len(s.pending) }

// Submitted returns the total number of command buffers enqueued.
func (s *Submissions) Submitted() uint64 { return s.submitted }

// Completed returns the total number of submissions observed complete.
func (s *Submissions) Completed() uint64 { return s.completed }

// WaitIdle blocks until every submission completes or timeout elapses.
// Submissions that never complete are leaked rather than freed while the
// GPU may still use them.
func (s *Submissions) WaitIdle(timeout time.Duration) error {
	idle, err := s.Poll(timeout)
	if err != nil {
		return err
	}
	if !idle {
		slogger().Warn("gpu: submissions still in flight", "count", len(s.pending))
		return fmt.Errorf("%w: %d submissions did not complete within %v",
			ErrDeviceLost, len(s.pending), timeout)
	}
	return nil
}

// Destroy releases the tracker's own fence. In-flight submissions are left
// alone.
func (s *Submissions) Destroy() {
	if s.health != nil {
		s.device.DestroyFence(s.health)
		s.health = nil
	}
}
