package blockdb

import (
	"context"
	"time"
)

// DefaultPollInterval is how often Watch checks for foreign commits.
const DefaultPollInterval = 500 * time.Millisecond

// OnRouteChanged registers fn to run when the current page changes.
func (d *DB) OnRouteChanged(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routeHandlers = append(d.routeHandlers, fn)
}

// OnContentChanged registers fn to run when another connection commits.
func (d *DB) OnContentChanged(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contentHandlers = append(d.contentHandlers, fn)
}

// Watch polls PRAGMA data_version until ctx is done. SQLite bumps it only for
// commits from other connections, so this store's own writes stay silent.
func (d *DB) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	version, err := d.dataVersion(ctx)
	if err != nil {
		return err
	}
	route, err := d.CurrentPageName(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		v, err := d.dataVersion(ctx)
		if err != nil {
			d.logger.Warn("poll failed", "error", err)
			continue
		}
		if v == version {
			continue
		}
		version = v

		if r, err := d.CurrentPageName(ctx); err == nil && r != route {
			route = r
			d.fire(true)
		}
		d.fire(false)
	}
}

func (d *DB) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	err := d.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v)
	return v, err
}

func (d *DB) fire(route bool) {
	d.mu.Lock()
	list := d.contentHandlers
	if route {
		list = d.routeHandlers
	}
	handlers := append([]func(){}, list...)
	d.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
