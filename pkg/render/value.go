package render

import (
	"fmt"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
)

// ValueBinding is the leaf consumer: it reads one state path and
// hands the value to a host-specific apply function. Wildcard levels
// in the pattern resolve against the binding's loop frame.
type ValueBinding struct {
	engine Engine
	info   *statepath.Info
	loop   *state.LoopContext
	apply  func(value any) error

	// phase defers the apply into a late pass phase. PhaseApply runs
	// inline.
	phase Phase
}

// NewValueBinding creates a value consumer for pattern applying
// through fn.
func NewValueBinding(engine Engine, pattern string, loop *state.LoopContext, fn func(value any) error) *ValueBinding {
	return &ValueBinding{
		engine: engine,
		info:   engine.Caches().Info(pattern),
		loop:   loop,
		apply:  fn,
	}
}

// NewDeferredValueBinding creates a value consumer whose apply runs
// in phase instead of inline. Selection values use PhaseApplySelect
// so their option lists exist first.
func NewDeferredValueBinding(engine Engine, pattern string, loop *state.LoopContext, phase Phase, fn func(value any) error) *ValueBinding {
	vb := NewValueBinding(engine, pattern, loop, fn)
	vb.phase = phase
	return vb
}

func (vb *ValueBinding) ref() (*statepath.Ref, error) {
	var li *statepath.ListIndex
	if n := vb.info.WildcardCount; n > 0 {
		li = vb.loop.ListIndexFor(vb.info.WildcardInfos[n-1])
		if li == nil {
			return nil, errors.New("loop-context-missing").
				WithContext("path", vb.info.Pattern)
		}
	}
	return vb.engine.Caches().Ref(vb.info, li), nil
}

// ApplyChange reads the bound path and applies its current value.
func (vb *ValueBinding) ApplyChange(r *Renderer) error {
	ref, err := vb.ref()
	if err != nil {
		return err
	}
	proxy := vb.engine.Proxy()
	if vb.loop != nil {
		proxy = proxy.WithLoop(vb.loop)
	}
	value, err := proxy.Get(ref)
	if err != nil {
		return err
	}
	r.MarkUpdated(vb)
	if vb.phase != PhaseApply {
		r.Defer(vb.phase, func() error { return vb.apply(value) })
		return nil
	}
	return vb.apply(value)
}

// TextSetter is the optional host capability text bindings write
// through.
type TextSetter interface {
	SetText(text string)
}

// NewTextBinding creates a value consumer writing the formatted value
// into node, which must support SetText.
func NewTextBinding(engine Engine, pattern string, loop *state.LoopContext, node TextSetter) *ValueBinding {
	return NewValueBinding(engine, pattern, loop, func(value any) error {
		node.SetText(fmt.Sprint(value))
		return nil
	})
}
