package update

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/render"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
)

// Update runs mutator inside a transaction: writes go through a
// writable view and commit into the pending batch. Opening a
// transaction while one is already mutating, or from inside a render
// pass, fails with update-reentrancy. The call returns once the
// committed changes have rendered; with a background loop running it
// waits on the pass, otherwise it flushes synchronously.
func (u *Updater) Update(ctx context.Context, loop *state.LoopContext, mutator func(state.Proxy) error) error {
	if !u.phase.CompareAndSwap(phaseIdle, phaseMutating) {
		return errors.New("update-reentrancy")
	}
	err := u.mutate(ctx, loop, mutator)
	if err != nil {
		u.metrics.IncTransaction("rejected")
		return err
	}
	u.metrics.IncTransaction("committed")

	if u.Pending() == 0 {
		return nil
	}
	done := completions.add(u)
	if u.running.Load() {
		u.wakeUp()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return u.drain(ctx)
}

// mutate runs mutator under the mutating phase. The phase restore is
// deferred so a panicking mutator cannot wedge the updater in
// phaseMutating.
func (u *Updater) mutate(ctx context.Context, loop *state.LoopContext, mutator func(state.Proxy) error) error {
	defer u.phase.Store(phaseIdle)
	_, span := u.tracer.Start(ctx, "update.transaction")
	defer span.End()
	err := mutator(state.NewWritable(u.store, loop, u))
	span.SetAttributes(attribute.Int("transaction.refs", u.Pending()))
	return err
}

// Flush drains the pending batch synchronously, chaining passes until
// no writes remain, and resolves every pending completion.
func (u *Updater) Flush(ctx context.Context) error {
	return u.drain(ctx)
}

// Start runs the background drain loop until ctx is done. With the
// loop running, commits render on the loop goroutine and Update
// blocks on its completion.
func (u *Updater) Start(ctx context.Context) {
	u.running.Store(true)
	go func() {
		defer u.running.Store(false)
		for {
			select {
			case <-ctx.Done():
				return
			case <-u.wake:
				if err := u.drain(ctx); err != nil {
					u.logger.Error("update pass failed", "error", err)
				}
			}
		}
	}()
}

// drain renders the pending batch, chaining follow-up passes for
// writes made during rendering, then resolves completions in enqueue
// order. The first pass or hook error stops the chain and rejects the
// completions.
func (u *Updater) drain(ctx context.Context) error {
	if !u.phase.CompareAndSwap(phaseIdle, phaseDraining) {
		return errors.New("update-reentrancy")
	}
	defer u.phase.Store(phaseIdle)

	var firstErr error
	for u.Pending() > 0 && firstErr == nil {
		batch := u.takeBatch()
		u.version++

		start := time.Now()
		_, span := u.tracer.Start(ctx, "update.pass", trace.WithAttributes(
			attribute.Int64("pass.version", int64(u.version)),
			attribute.Int("pass.refs", len(batch)),
		))

		r := render.New(u)
		err := r.Render(batch)
		if err == nil {
			err = u.runHooks(batch)
		}
		span.End()
		u.metrics.ObservePass(start, len(batch), err != nil)
		u.notifyPass(PassInfo{
			Version:  u.version,
			Refs:     len(batch),
			Duration: time.Since(start),
			Failed:   err != nil,
		})

		if err != nil {
			u.logger.Error("render pass failed",
				"version", u.version,
				"refs", len(batch),
				"error", err)
			firstErr = err
			break
		}
		u.logger.Debug("render pass complete",
			"version", u.version,
			"refs", len(batch),
			"pending", u.Pending())
	}

	completions.resolve(u, firstErr)
	return firstErr
}

// runHooks fires the registered hooks whose pattern changed in batch.
// Each hook fires once per pass with the deduplicated index tuples of
// its changed elements.
func (u *Updater) runHooks(batch []*statepath.Ref) error {
	if len(u.hooks) == 0 {
		return nil
	}

	byPattern := make(map[string][][]int)
	seen := make(map[*statepath.Ref]struct{}, len(batch))
	for _, ref := range batch {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		if _, ok := u.hooks[ref.Info.Pattern]; !ok {
			continue
		}
		byPattern[ref.Info.Pattern] = append(byPattern[ref.Info.Pattern], ref.ListIndex.Indexes())
	}

	for pattern, indexes := range byPattern {
		for _, fn := range u.hooks[pattern] {
			if err := fn(indexes); err != nil {
				return errors.New("hook-failed").
					WithContext("path", pattern).
					Wrap(err)
			}
		}
	}
	return nil
}
