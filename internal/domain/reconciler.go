package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	"settingsync.dev/pkg/settingsync/internal/controller"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// MaxConcurrency caps the package manager invocations in flight.
const MaxConcurrency = 8

// Outcome lists the packages a batch handled, by result.
type Outcome struct {
	Succeeded []string
	Failed    []string
}

// Reconciler brings the installed packages in line with a manifest.
type Reconciler interface {
	InstallMissing(ctx context.Context, manifest []m.Package) (Outcome, error)
	RemoveObsolete(ctx context.Context, manifest []m.Package) (Outcome, error)
}

type reconciler struct {
	registry adapter.PackageRegistry
	manager  adapter.PackageManagerAdapter
	sink     controller.NotificationSink
}

// NewReconciler creates a Reconciler over the local package registry and
// package manager.
func NewReconciler(
	registry adapter.PackageRegistry,
	manager adapter.PackageManagerAdapter,
	sink controller.NotificationSink,
) Reconciler {
	return &reconciler{
		registry: registry,
		manager:  manager,
		sink:     sink,
	}
}

// batchVerbs carries the wording of one kind of batch.
type batchVerbs struct {
	verb       string
	progress   string
	operation  func(ctx context.Context, pkg m.Package) error
	emptyLabel string
}

func (r *reconciler) InstallMissing(ctx context.Context, manifest []m.Package) (Outcome, error) {
	inventory, err := Inventory(ctx, r.registry)
	if err != nil {
		return Outcome{}, err
	}

	return r.run(ctx, InstallWorkSet(inventory, manifest), batchVerbs{
		verb:       "install",
		progress:   "installing",
		operation:  r.manager.Install,
		emptyLabel: "no packages to install",
	}), nil
}

func (r *reconciler) RemoveObsolete(ctx context.Context, manifest []m.Package) (Outcome, error) {
	inventory, err := Inventory(ctx, r.registry)
	if err != nil {
		return Outcome{}, err
	}

	return r.run(ctx, RemoveWorkSet(inventory, manifest), batchVerbs{
		verb:       "remove",
		progress:   "removing",
		operation:  r.manager.Uninstall,
		emptyLabel: "no packages to remove",
	}), nil
}

// run drains work with at most MaxConcurrency workers popping from a shared
// queue. A failed item is recorded and never stops the batch.
func (r *reconciler) run(ctx context.Context, work []m.Package, verbs batchVerbs) Outcome {
	if len(work) == 0 {
		r.sink.Info(ctx, verbs.emptyLabel)
		return Outcome{}
	}

	total := len(work)
	queue := append([]m.Package(nil), work...)

	var (
		mu      sync.Mutex
		outcome Outcome
		group   errgroup.Group
	)

	pop := func() (m.Package, int, bool) {
		mu.Lock()
		defer mu.Unlock()

		if len(queue) == 0 {
			return m.Package{}, 0, false
		}

		next := queue[0]
		queue = queue[1:]

		return next, total - len(queue), true
	}

	for range min(total, MaxConcurrency) {
		group.Go(func() error {
			for {
				pkg, i, ok := pop()
				if !ok {
					return nil
				}

				progress := r.sink.Info(ctx,
					fmt.Sprintf("%s %s (%d/%d)", verbs.progress, pkg.Name, i, total),
					controller.WithDismissable())

				err := verbs.operation(ctx, pkg)

				mu.Lock()
				if err != nil {
					outcome.Failed = append(outcome.Failed, pkg.Name)
				} else {
					outcome.Succeeded = append(outcome.Succeeded, pkg.Name)
				}
				mu.Unlock()

				if err != nil {
					slog.Error("package operation failed", "operation", verbs.verb, "kind", pkg.Kind(), "package", pkg.Name, "error", err)
					r.sink.Warning(ctx, fmt.Sprintf("failed to %s %s", verbs.verb, pkg.Name))
				} else {
					slog.Info("package operation succeeded", "operation", verbs.verb, "kind", pkg.Kind(), "package", pkg.Name)
				}

				if progress != nil {
					progress.Dismiss()
				}
			}
		})
	}

	// Workers never return an error.
	_ = group.Wait()

	sort.Strings(outcome.Succeeded)
	sort.Strings(outcome.Failed)

	if len(outcome.Failed) == 0 {
		r.sink.Success(ctx, fmt.Sprintf("finished %s %d packages", verbs.progress, len(outcome.Succeeded)))
	} else {
		r.sink.Warning(ctx,
			fmt.Sprintf("finished %s packages (%d failed: %s)", verbs.progress, len(outcome.Failed), strings.Join(outcome.Failed, ", ")),
			controller.WithDismissable())
	}

	return outcome
}

