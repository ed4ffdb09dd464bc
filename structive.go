// Package structive wires the runtime pieces into one handle: the
// interning caches, the state store, the template registry, and the
// update scheduler. Applications that don't need to assemble the
// pieces themselves start here.
package structive

import (
	"context"
	"log/slog"

	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/metrics"
	"github.com/structivejs/structive/pkg/render"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
	"github.com/structivejs/structive/pkg/template"
	"github.com/structivejs/structive/pkg/update"
)

// Runtime is one assembled reactive runtime over one state root.
type Runtime struct {
	caches    *statepath.Caches
	store     *state.Store
	templates *template.Registry
	updater   *update.Updater
	factory   host.Factory
}

// Option configures a Runtime.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	factory host.Factory
}

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithMetrics sets the runtime metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithFactory sets the host node factory. Defaults to the in-memory
// host.
func WithFactory(f host.Factory) Option {
	return func(c *config) { c.factory = f }
}

// New assembles a runtime over root. A nil root starts empty.
func New(root map[string]any, opts ...Option) *Runtime {
	cfg := config{
		logger:  slog.Default(),
		factory: host.MemoryFactory{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	caches := statepath.NewCaches()
	store := state.NewStore(caches, root)
	templates := template.NewRegistry(cfg.factory)
	updater := update.New(store,
		update.WithLogger(cfg.logger),
		update.WithMetrics(cfg.metrics),
		update.WithFactory(cfg.factory),
		update.WithTemplates(templates),
	)
	return &Runtime{
		caches:    caches,
		store:     store,
		templates: templates,
		updater:   updater,
		factory:   cfg.factory,
	}
}

// Caches returns the interning caches.
func (rt *Runtime) Caches() *statepath.Caches {
	return rt.caches
}

// Store returns the state store.
func (rt *Runtime) Store() *state.Store {
	return rt.store
}

// Templates returns the template registry.
func (rt *Runtime) Templates() *template.Registry {
	return rt.templates
}

// Updater returns the update scheduler.
func (rt *Runtime) Updater() *update.Updater {
	return rt.updater
}

// Register interns pattern and adds it to the path index.
func (rt *Runtime) Register(pattern string) *statepath.Info {
	return rt.caches.Register(pattern)
}

// RegisterGetter registers a computed property.
func (rt *Runtime) RegisterGetter(pattern string, fn state.GetterFunc) {
	rt.store.RegisterGetter(pattern, fn)
}

// RegisterTemplate registers a template shape with its binding specs
// and returns its ID.
func (rt *Runtime) RegisterTemplate(nodes []template.Node, bindings []render.BindingSpec) int {
	return rt.templates.Register(nodes, bindings)
}

// Ref interns the reference for pattern, registering the pattern on
// first use.
func (rt *Runtime) Ref(pattern string, li *statepath.ListIndex) *statepath.Ref {
	return rt.caches.Ref(rt.caches.Register(pattern), li)
}

// BindList renders templateID once per element of pattern inside
// container. The binding's marker is appended to container.
func (rt *Runtime) BindList(pattern string, templateID int, container host.Node) *render.LoopBinding {
	marker := rt.factory.Marker()
	container.AppendChild(marker)
	lb := render.NewLoopBinding(rt.updater, pattern, templateID, marker, nil)
	rt.updater.AddBinding(rt.Ref(pattern, nil), lb)
	return lb
}

// BindValue invokes fn with pattern's current value whenever it
// changes.
func (rt *Runtime) BindValue(pattern string, fn func(value any) error) {
	rt.updater.AddBinding(rt.Ref(pattern, nil),
		render.NewValueBinding(rt.updater, pattern, nil, fn))
}

// OnUpdated runs fn after every pass that rendered a change at
// pattern.
func (rt *Runtime) OnUpdated(pattern string, fn update.UpdatedHook) {
	rt.updater.RegisterUpdatedHook(pattern, fn)
}

// Update runs mutator inside a transaction and returns once its
// changes have rendered.
func (rt *Runtime) Update(ctx context.Context, mutator func(state.Proxy) error) error {
	return rt.updater.Update(ctx, nil, mutator)
}

// Start runs the background drain loop until ctx is done.
func (rt *Runtime) Start(ctx context.Context) {
	rt.updater.Start(ctx)
}

// Flush drains pending changes synchronously.
func (rt *Runtime) Flush(ctx context.Context) error {
	return rt.updater.Flush(ctx)
}
