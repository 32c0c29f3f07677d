package authgate

import (
	"context"

	"github.com/hollowaylabs/authgate/internal/background"
)

// auditDispatcher decouples audit emission from the request path by
// pushing sink calls onto a dedicated [background.Runner]. The runner
// owns the buffer, the worker, and the drop accounting; the dispatcher
// only decides whether a full buffer drops the event or applies
// backpressure to the emitter.
type auditDispatcher struct {
	runner *background.Runner
	sink   AuditSink
	block  bool
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	return &auditDispatcher{
		runner: background.New(cfg.BufferSize),
		sink:   sink,
		block:  !cfg.DropIfFull,
	}
}

// Emit hands an event to the sink asynchronously. In drop mode a full
// buffer discards the event and counts it; in blocking mode Emit waits
// for space until ctx is done.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}

	deliver := func(taskCtx context.Context) {
		d.sink.Emit(taskCtx, event)
	}
	if d.block {
		d.runner.SubmitWait(ctx, deliver)
		return
	}
	d.runner.Submit(deliver)
}

// Close drains buffered events into the sink and stops the worker. Safe
// to call more than once; Emit is a no-op afterwards.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.runner.Close()
}

// Dropped reports how many events were discarded due to a full buffer.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.runner.Dropped()
}
