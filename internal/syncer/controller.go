// Package syncer orchestrates the cart aggregate against local storage
// and the remote commerce backend: hydrate on start, merge with the
// server cart once per sign-in, and push changes back with a debounce.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/cart-sync/internal/commerce"
	"github.com/fjod/cart-sync/internal/domain"
	"github.com/fjod/cart-sync/internal/store"
)

type State int

const (
	Uninitialized State = iota
	Hydrating
	Hydrated
	Merging
	SyncedIdle
	SyncPending
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Hydrating:
		return "hydrating"
	case Hydrated:
		return "hydrated"
	case Merging:
		return "merging"
	case SyncedIdle:
		return "synced-idle"
	case SyncPending:
		return "sync-pending"
	default:
		return "unknown"
	}
}

const (
	DefaultDebounceInterval = 800 * time.Millisecond

	persistTimeout = 2 * time.Second
	pushTimeout    = 10 * time.Second
)

// Config carries everything the controller needs explicitly; the
// controller reads no ambient state.
type Config struct {
	Store      store.Store
	StorageKey string

	// Adapter is the commerce backend, or nil for local-only
	// operation. Capabilities are detected per interface.
	Adapter       any
	CustomerID    string
	Authenticated bool

	DebounceInterval time.Duration
	Logger           *slog.Logger
}

// Controller owns the cart aggregate. All transitions run under one
// mutex, the moral equivalent of the single logical thread the design
// assumes; the three suspending operations (hydrate read, merge call,
// write-back call) run outside it.
type Controller struct {
	cfg     Config
	caps    commerce.Capabilities
	fetcher commerce.CartFetcher
	merger  commerce.CartMerger
	writer  commerce.CartWriter
	log     *slog.Logger

	mu    sync.Mutex
	state State
	cart  domain.CartAggregate

	// merged is the merge-once guard, set before the merge call goes
	// out so a re-entrant trigger cannot start a second merge.
	// mergeDone flips when the merge resolves (or is known to never
	// happen); write-back waits on it, not on merged.
	merged    bool
	mergeDone bool

	lastSyncedFingerprint string
	// persistMu serializes snapshot writes to the store so a slow
	// older write can never land after a newer one.
	persistMu sync.Mutex
	timer     *time.Timer
	// writeGen bumps every time the timer is re-armed so a finishing
	// flush can tell whether a newer write-back is already pending.
	writeGen uint64
	closed   bool
}

func New(cfg Config) *Controller {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Controller{
		cfg:  cfg,
		caps: commerce.Detect(cfg.Adapter),
		log:  cfg.Logger,
	}
	c.fetcher, _ = cfg.Adapter.(commerce.CartFetcher)
	c.merger, _ = cfg.Adapter.(commerce.CartMerger)
	c.writer, _ = cfg.Adapter.(commerce.CartWriter)
	return c
}

func (c *Controller) Capabilities() commerce.Capabilities {
	return c.caps
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a deep copy of the current aggregate.
func (c *Controller) Snapshot() domain.CartAggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Clone()
}

// Start hydrates from storage and, when the session is authenticated
// and the backend supports it, reconciles with the server cart.
// Single-shot: later calls are no-ops.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state != Uninitialized || c.closed {
		c.mu.Unlock()
		return
	}
	c.state = Hydrating
	c.mu.Unlock()

	snapshot, ok := c.loadSnapshot(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if ok {
		c.cart = domain.Apply(c.cart, domain.Hydrate{Snapshot: snapshot})
	}
	c.state = Hydrated

	shouldMerge := c.cfg.Authenticated && c.caps.CanMerge() && !c.merged
	if shouldMerge {
		c.merged = true
		c.state = Merging
	} else {
		c.mergeDone = true
		c.state = SyncedIdle
	}
	c.mu.Unlock()

	if shouldMerge {
		c.merge(ctx)
	}
}

// loadSnapshot reads and decodes the persisted aggregate. Any failure
// (missing key, storage error, corrupt bytes) degrades to "no
// persisted data"; storage is best-effort by contract.
func (c *Controller) loadSnapshot(ctx context.Context) (domain.CartAggregate, bool) {
	data, err := c.cfg.Store.Read(ctx, c.cfg.StorageKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn("cart snapshot read failed, starting empty", "error", err)
		}
		return domain.CartAggregate{}, false
	}
	var snapshot domain.CartAggregate
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.log.Warn("cart snapshot malformed, starting empty", "error", err)
		return domain.CartAggregate{}, false
	}
	return snapshot, true
}

// merge reconciles the local cart with the server cart. The server
// result is authoritative: it replaces local state and seeds the sync
// fingerprint. On any failure the controller fails open and the local
// cart stays authoritative for the rest of the session.
func (c *Controller) merge(ctx context.Context) {
	local := c.Snapshot()

	var remote domain.CartAggregate
	var err error
	switch {
	case c.caps.Merge:
		remote, err = c.merger.MergeCart(ctx, c.cfg.CustomerID, local)
	case c.caps.Fetch:
		remote, err = c.fetcher.GetCart(ctx, c.cfg.CustomerID)
	}

	c.mu.Lock()
	c.mergeDone = true
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = SyncedIdle
		c.mu.Unlock()
		c.log.Warn("cart merge failed, keeping local cart", "error", err)
		return
	}
	c.cart = domain.Apply(c.cart, domain.Hydrate{Snapshot: remote})
	c.lastSyncedFingerprint = fingerprint(c.cart)
	c.state = SyncedIdle
	c.mu.Unlock()

	go c.persist()
}

// Dispatch applies an action and returns the new aggregate. The new
// state is persisted fire-and-forget and a debounced write-back is
// armed when remote sync applies.
func (c *Controller) Dispatch(action domain.Action) domain.CartAggregate {
	c.mu.Lock()
	c.cart = domain.Apply(c.cart, action)
	snapshot := c.cart.Clone()
	closed := c.closed
	c.scheduleWriteBackLocked(snapshot)
	c.mu.Unlock()

	if !closed {
		go c.persist()
	}
	return snapshot
}

// persist writes the current aggregate to local storage. Writes run
// one at a time under persistMu and each re-reads state at write
// time, so the last write always carries the freshest snapshot even
// when a burst of dispatches spawns several persists. Failures are
// logged and swallowed: durability is an optimization, the in-memory
// aggregate stays correct without it.
func (c *Controller) persist() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		c.log.Warn("cart snapshot marshal failed", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.cfg.Store.Write(ctx, c.cfg.StorageKey, data); err != nil {
		c.log.Warn("cart snapshot write failed", "error", err)
	}
}

func (c *Controller) scheduleWriteBackLocked(snapshot domain.CartAggregate) {
	if c.closed || !c.mergeDone || !c.cfg.Authenticated || !c.caps.Write {
		return
	}
	if fingerprint(snapshot) == c.lastSyncedFingerprint {
		return
	}
	c.state = SyncPending
	c.writeGen++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.DebounceInterval, c.flush)
}

// flush pushes the latest aggregate to the server. A failed push is
// dropped, not retried: the next change re-arms the timer and carries
// newer state anyway.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.closed || !c.mergeDone || !c.cfg.Authenticated || c.writer == nil {
		c.mu.Unlock()
		return
	}
	snapshot := c.cart.Clone()
	fp := fingerprint(snapshot)
	gen := c.writeGen
	if fp == c.lastSyncedFingerprint {
		c.state = SyncedIdle
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	err := c.writer.UpdateCart(ctx, c.cfg.CustomerID, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		if gen == c.writeGen {
			c.state = SyncedIdle
		}
		c.log.Warn("cart write-back failed, superseded by next change", "error", err)
		return
	}
	c.lastSyncedFingerprint = fp
	if gen == c.writeGen {
		c.state = SyncedIdle
	}
}

// Close tears the controller down. A pending debounce timer is
// cancelled so no write-back fires afterwards; results of in-flight
// calls are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
