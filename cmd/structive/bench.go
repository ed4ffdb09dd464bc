package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/render"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
	"github.com/structivejs/structive/pkg/template"
	"github.com/structivejs/structive/pkg/update"
)

func benchCmd() *cobra.Command {
	var (
		size   int
		rounds int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the headless reconciliation benchmark",
		Long: `Drive the full update/render stack against the in-memory host:
populate a list, then shuffle, trim, and grow it for a number of
rounds, reporting pass timings and instance churn.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(size, rounds, seed)
		},
	}

	cmd.Flags().IntVar(&size, "size", 1000, "List size to reconcile")
	cmd.Flags().IntVar(&rounds, "rounds", 100, "Reconciliation rounds")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Shuffle seed")

	return cmd
}

func runBench(size, rounds int, seed int64) error {
	caches := statepath.NewCaches()
	store := state.NewStore(caches, map[string]any{"items": nil})
	reg := template.NewRegistry(host.MemoryFactory{})
	u := update.New(store, update.WithTemplates(reg))

	caches.Register("items")
	caches.Register("items.*")

	tplID := reg.Register(
		[]template.Node{template.Element("li", template.Text(""))},
		[]render.BindingSpec{{
			NodePath: []int{0, 0},
			Pattern:  "items.*",
			Create: func(node host.Node, loop *state.LoopContext) render.Consumer {
				return render.NewTextBinding(u, "items.*", loop, node.(*host.TreeNode))
			},
		}},
	)

	root := host.NewRoot("ul")
	marker := host.MemoryFactory{}.Marker()
	root.AppendChild(marker)
	lb := render.NewLoopBinding(u, "items", tplID, marker, nil)
	itemsRef := caches.Ref(caches.Info("items"), nil)
	u.AddBinding(itemsRef, lb)

	rng := rand.New(rand.NewSource(seed))
	items := make([]any, size)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}

	ctx := context.Background()
	set := func(v []any) error {
		return u.Update(ctx, nil, func(p state.Proxy) error {
			return p.Set(itemsRef, v)
		})
	}

	start := time.Now()
	if err := set(items); err != nil {
		return err
	}
	info("populate %d: %v", size, time.Since(start))

	start = time.Now()
	current := items
	for round := 0; round < rounds; round++ {
		next := append([]any(nil), current...)
		switch round % 3 {
		case 0: // shuffle
			rng.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
		case 1: // trim a third
			next = next[:len(next)-len(next)/3]
		case 2: // grow back with fresh tails
			for i := len(next); i < size; i++ {
				next = append(next, fmt.Sprintf("round-%d-%d", round, i))
			}
		}
		if err := set(next); err != nil {
			return err
		}
		current = next
	}
	elapsed := time.Since(start)

	success("%d rounds over %d elements in %v (%v/round)",
		rounds, size, elapsed, elapsed/time.Duration(rounds))
	info("passes:    %d", u.Version())
	info("instances: %d created, %d pooled", lb.Creations(), lb.PoolSize())
	info("nodes:     %d children under root", root.ChildCount())
	return nil
}
