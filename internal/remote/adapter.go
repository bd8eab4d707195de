// Package remote is the sync adapter between the engine and the persistence
// service. It translates domain values to table records and back, and turns
// every persistence failure into a RemoteFailure.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/store"
)

// Adapter performs typed engine operations against a store.Store.
type Adapter struct {
	store  store.Store
	logger *slog.Logger
}

// New creates an adapter over s.
func New(s store.Store, logger *slog.Logger) *Adapter {
	return &Adapter{store: s, logger: logger}
}

// Snapshot is everything the engine loads at startup.
type Snapshot struct {
	Books       []domain.Book
	Groups      []domain.DiscussionGroup
	Annotations []domain.Annotation
}

// Hydrate loads the catalog, the group trees and all annotations.
func (a *Adapter) Hydrate(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		books, err := a.LoadCatalog(gctx)
		snap.Books = books
		return err
	})
	g.Go(func() error {
		groups, err := a.LoadGroups(gctx)
		snap.Groups = groups
		return err
	})
	g.Go(func() error {
		anns, err := a.LoadAnnotations(gctx)
		snap.Annotations = anns
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	a.logger.Info("state hydrated",
		"books", len(snap.Books),
		"groups", len(snap.Groups),
		"annotations", len(snap.Annotations))
	return snap, nil
}

// Ping issues a cheap select to check the persistence service is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.selectRows(ctx, "books", store.Filter{"id": ""})
	return err
}

func (a *Adapter) selectRows(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	var rows []store.Record
	err := a.call(ctx, "select", table, func() error {
		var err error
		rows, err = a.store.Select(ctx, table, filter)
		return err
	})
	return rows, err
}

func (a *Adapter) insert(ctx context.Context, table string, recs ...store.Record) ([]store.Record, error) {
	var rows []store.Record
	err := a.call(ctx, "insert", table, func() error {
		var err error
		rows, err = a.store.Insert(ctx, table, recs)
		return err
	})
	return rows, err
}

func (a *Adapter) upsert(ctx context.Context, table string, rec store.Record, key ...string) error {
	return a.call(ctx, "upsert", table, func() error {
		return a.store.Upsert(ctx, table, rec, key)
	})
}

func (a *Adapter) delete(ctx context.Context, table string, match store.Filter) error {
	return a.call(ctx, "delete", table, func() error {
		return a.store.Delete(ctx, table, match)
	})
}

// call runs fn, records metrics and classifies failures.
func (a *Adapter) call(ctx context.Context, op, table string, fn func() error) error {
	start := time.Now()
	err := fn()
	remoteLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil {
		remoteCalls.WithLabelValues(table, op, "ok").Inc()
		return nil
	}
	remoteCalls.WithLabelValues(table, op, "error").Inc()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.RemoteFailure(err, "persistence call interrupted")
	}
	a.logger.ErrorContext(ctx, "persistence call failed",
		"op", op,
		"table", table,
		"error", err)
	return domainerrors.RemoteFailure(err, op+" "+table+" failed")
}
