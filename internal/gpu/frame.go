package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// frameState batches the command buffers recorded between BeginFrame and
// EndFrame so a frame submits once. Cleanup callbacks release transient
// GPU resources once the frame's fence has signaled.
type frameState struct {
	pending []hal.CommandBuffer
	cleanup []func()
}

// BeginFrame opens a frame bracket: draw calls recorded until EndFrame
// are submitted together. It also advances the vertex pool ring, so a
// renderer driving a swapchain should call it once per displayed frame.
// An already-open frame is flushed first.
func (r *Renderer) BeginFrame() error {
	if r.frame != nil {
		slogger().Warn("quartz: BeginFrame with open frame, flushing")
		if err := r.EndFrame(); err != nil {
			return err
		}
	}
	r.pool.AdvanceFrame()
	r.frame = &frameState{}
	return nil
}

// EndFrame submits the frame's command buffers in recording order and
// waits for completion. Calling it without an open frame is a no-op.
func (r *Renderer) EndFrame() error {
	f := r.frame
	if f == nil {
		return nil
	}
	r.frame = nil
	if len(f.pending) == 0 {
		runAll(f.cleanup)
		return nil
	}
	err := r.submitAndWait(f.pending)
	for _, cmd := range f.pending {
		r.device.FreeCommandBuffer(cmd)
	}
	runAll(f.cleanup)
	if err != nil {
		return err
	}
	r.framesSubmitted++
	return nil
}

// finish hands a recorded command buffer to the open frame, or submits
// it immediately when no frame is open. Scratch cleanups registered
// during recording run after the GPU is done.
func (r *Renderer) finish(cmd hal.CommandBuffer) error {
	cleanups := r.scratch
	r.scratch = nil

	if r.frame != nil {
		r.frame.pending = append(r.frame.pending, cmd)
		r.frame.cleanup = append(r.frame.cleanup, cleanups...)
		return nil
	}

	err := r.submitAndWait([]hal.CommandBuffer{cmd})
	r.device.FreeCommandBuffer(cmd)
	runAll(cleanups)
	if err != nil {
		return err
	}
	r.framesSubmitted++
	r.pool.AdvanceFrame()
	return nil
}

// submitAndWait submits command buffers with the next fence value and
// blocks until the GPU signals it.
func (r *Renderer) submitAndWait(cmds []hal.CommandBuffer) error {
	r.fenceValue++
	if err := r.queue.Submit(cmds, r.fence, r.fenceValue); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := r.device.Wait(r.fence, r.fenceValue, gpuTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// deferFrameCleanup schedules a transient resource release for after the
// current recording's fence wait.
func (r *Renderer) deferFrameCleanup(f func()) {
	r.scratch = append(r.scratch, f)
}

// runScratch releases scratch resources immediately; used when a
// recording is discarded before submission.
func (r *Renderer) runScratch() {
	cleanups := r.scratch
	r.scratch = nil
	runAll(cleanups)
}

func runAll(fns []func()) {
	for _, f := range fns {
		f()
	}
}
