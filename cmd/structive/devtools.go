package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/structivejs/structive/pkg/devtools"
	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/metrics"
	"github.com/structivejs/structive/pkg/render"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
	"github.com/structivejs/structive/pkg/template"
	"github.com/structivejs/structive/pkg/update"
)

func devtoolsCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Serve the runtime inspection endpoints",
		Long: `Run a demo runtime that mutates a list on an interval and serve
the devtools endpoints over it: /debug/paths, /debug/status,
/debug/errors, /metrics, and the /ws/passes stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevtools(addr, interval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9710", "Listen address")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Demo mutation interval")

	return cmd
}

func runDevtools(addr string, interval time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(registry))

	caches := statepath.NewCaches()
	store := state.NewStore(caches, map[string]any{"ticks": nil})
	reg := template.NewRegistry(host.MemoryFactory{})
	u := update.New(store,
		update.WithLogger(logger),
		update.WithMetrics(m),
		update.WithTemplates(reg),
	)

	caches.Register("ticks")
	caches.Register("ticks.*")

	tplID := reg.Register(
		[]template.Node{template.Element("li", template.Text(""))},
		[]render.BindingSpec{{
			NodePath: []int{0, 0},
			Pattern:  "ticks.*",
			Create: func(node host.Node, loop *state.LoopContext) render.Consumer {
				return render.NewTextBinding(u, "ticks.*", loop, node.(*host.TreeNode))
			},
		}},
	)

	root := host.NewRoot("ul")
	marker := host.MemoryFactory{}.Marker()
	root.AppendChild(marker)
	ticksRef := caches.Ref(caches.Info("ticks"), nil)
	u.AddBinding(ticksRef, render.NewLoopBinding(u, "ticks", tplID, marker, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	u.Start(ctx)

	// demo traffic: a sliding window of tick labels
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var ticks []any
		n := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n++
				ticks = append(ticks, fmt.Sprintf("tick-%d", n))
				if len(ticks) > 10 {
					ticks = ticks[1:]
				}
				err := u.Update(ctx, nil, func(p state.Proxy) error {
					return p.Set(ticksRef, append([]any(nil), ticks...))
				})
				if err != nil && ctx.Err() == nil {
					logger.Error("demo update failed", "error", err)
				}
			}
		}
	}()

	srv := devtools.NewServer(u,
		devtools.WithLogger(logger),
		devtools.WithGatherer(registry),
	)
	defer srv.Close()

	httpSrv := &http.Server{Addr: addr, Handler: srv.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	success("devtools listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
