// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"fmt"
	"path/filepath"

	"github.com/gogpu/raymarks/internal/gpu"
	"github.com/gogpu/raymarks/internal/image"
)

// Readback is a pending copy of the render target to an image file.
//
// It completes only while it is driven: Poll advances it by one step and
// Wait drives it to the end. Once done, the mapping has been released
// whatever the outcome.
type Readback struct {
	ctx     *Context
	staging *gpu.StagingBuffer
	name    string

	width       uint32
	height      uint32
	bytesPerRow uint32

	// Set by the map callback.
	fired  bool
	status gpu.MapStatus

	attempts int
	done     bool
	path     string
	err      error
}

// SaveRenderTarget requests a read mapping of the staging buffer and
// returns a Readback that writes the image to
// {OutputDir}/{name}_{width}x{height}.png once the mapping completes.
//
// The readback observes whatever was copied by submitted passes; record and
// Submit before calling it.
func (c *Context) SaveRenderTarget(name string) (*Readback, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.target == nil {
		return nil, ErrNoTarget
	}
	r := &Readback{
		ctx:         c,
		staging:     c.target.Staging,
		name:        name,
		width:       c.target.Width(),
		height:      c.target.Height(),
		bytesPerRow: c.target.BytesPerRow(),
	}
	err := r.staging.MapAsync(func(status gpu.MapStatus) {
		r.fired = true
		r.status = status
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	c.pendingMaps = append(c.pendingMaps, r.staging)
	Logger().Debug("raymarks: readback requested",
		"name", name, "width", r.width, "height", r.height)
	return r, nil
}

// SaveRenderTargetSync is SaveRenderTarget followed by Wait. It returns the
// path of the written image.
func (c *Context) SaveRenderTargetSync(name string) (string, error) {
	r, err := c.SaveRenderTarget(name)
	if err != nil {
		return "", err
	}
	if err := r.Wait(); err != nil {
		return "", err
	}
	return r.Path(), nil
}

// Poll drives the owning Context one step and reports whether the readback
// has finished. The returned error is the readback's final error.
func (r *Readback) Poll() (bool, error) {
	if r.done {
		return true, r.err
	}

	if !r.fired {
		_, err := r.ctx.Poll()
		r.attempts++
		if err != nil {
			r.finish(err)
			return true, r.err
		}
		if !r.fired {
			if r.attempts >= r.ctx.opts.mapAttempts() {
				r.finish(fmt.Errorf("%w: after %v", ErrMapTimeout, r.ctx.opts.mapTimeout))
				return true, r.err
			}
			return false, nil
		}
	}

	if r.status != gpu.MapStatusSuccess {
		r.finish(fmt.Errorf("%w: %v", ErrMapFailed, r.status))
		return true, r.err
	}
	r.finish(r.persist())
	return true, r.err
}

// Wait drives the readback until it finishes or the map timeout expires.
func (r *Readback) Wait() error {
	for {
		done, err := r.Poll()
		if done {
			return err
		}
	}
}

// Done reports whether the readback has finished.
func (r *Readback) Done() bool { return r.done }

// Path returns the written file, or "" until the readback succeeded.
func (r *Readback) Path() string { return r.path }

// Err returns the final error of a finished readback.
func (r *Readback) Err() error { return r.err }

// persist copies the mapped rows into a host image and writes it out.
func (r *Readback) persist() error {
	data, err := r.staging.MappedRange()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	img, err := image.FromRows(data, int(r.width), int(r.height), int(r.bytesPerRow))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	path := filepath.Join(r.ctx.opts.outputDir, image.FileName(r.name, int(r.width), int(r.height)))
	if err := img.SavePNG(path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	r.path = path
	Logger().Info("raymarks: render target saved", "path", path)
	return nil
}

// finish records the outcome and releases the mapping. It runs on every
// exit path.
func (r *Readback) finish(err error) {
	r.done = true
	r.err = err
	r.ctx.dropPendingMap(r.staging)
	if !r.staging.IsDestroyed() {
		_ = r.staging.Unmap()
	}
}
