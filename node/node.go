// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node opens the stores of a pool from configuration, serializes its
// entry points and commits their effects block by block.
package node

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/pool"
	"github.com/lsdcore/lsd/config"
	"github.com/lsdcore/lsd/eventdb"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/lvldb"
	"github.com/lsdcore/lsd/metrics"
	"github.com/lsdcore/lsd/state"
)

var logger = log.WithContext("pkg", "node")

func SetLogger(l log.Logger) {
	logger = l
}

// CommitEvent is published after a block was committed.
type CommitEvent struct {
	BlockNumber uint32
	Slots       int
	Events      []*lsd.Event
}

type Node struct {
	mu     sync.Mutex
	cfg    *config.Config
	db     *lvldb.LevelDB
	events *eventdb.EventDB
	state  *state.State
	pool   *pool.Pool

	commitFeed event.Feed
	scope      event.SubscriptionScope
}

// Open opens or creates the stores under cfg.DataDir. A pool found
// uninitialized is initialized from cfg and committed at block 0, an outdated
// one is migrated. Fees default to the configured static distribution.
func Open(cfg *config.Config, collaborators accounting.Collaborators, allocator accounting.ValidatorAllocator) (n *Node, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	db, err := lvldb.New(filepath.Join(cfg.DataDir, "state"), lvldb.Options{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if n == nil {
			db.Close()
		}
	}()
	st, err := state.New(db, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	events, err := eventdb.New(filepath.Join(cfg.DataDir, "events.db"))
	if err != nil {
		return nil, err
	}
	defer func() {
		if n == nil {
			events.Close()
		}
	}()

	if collaborators.Fees == nil {
		fees, err := accounting.NewStaticFees(cfg.Fees.TotalBP, cfg.Fees.Treasury, cfg.FeeRecipients())
		if err != nil {
			return nil, errors.WithMessage(err, "fees")
		}
		collaborators.Fees = fees
	}

	node := &Node{
		cfg:    cfg,
		db:     db,
		events: events,
		state:  st,
		pool:   pool.New(st, collaborators, allocator),
	}
	if err := node.prepare(); err != nil {
		return nil, err
	}
	logger.Info("node opened", "dataDir", cfg.DataDir)
	return node, nil
}

// prepare initializes or migrates the pool schema.
func (n *Node) prepare() error {
	version, err := n.pool.SchemaVersion()
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		if err := n.pool.Initialize(n.poolParams()); err != nil {
			return errors.WithMessage(err, "initialize pool")
		}
	case version < pool.LatestSchemaVersion():
		if _, err := n.pool.Migrate(n.cfg.Admin); err != nil {
			return errors.WithMessage(err, "migrate pool")
		}
	default:
		return nil
	}

	// commit next to the newest journaled block so events are not replaced
	num, ok, err := n.events.NewestBlockNumber()
	if err != nil {
		return err
	}
	if ok {
		num++
	}
	return n.Commit(num)
}

func (n *Node) poolParams() *pool.Params {
	params := &pool.Params{
		Admin:   n.cfg.Admin,
		Limits:  n.cfg.Limits(),
		Members: n.cfg.Committee.Members,
		Quorum:  n.cfg.Committee.Quorum,
	}
	if sl := n.cfg.StakeLimit; sl != nil {
		params.StakeLimit = &pool.StakeLimit{
			MaxLimit:       sl.MaxLimit.Int(),
			GrowthPerBlock: sl.GrowthPerBlock.Int(),
		}
	}
	return params
}

// Exec runs fn against the pool. Calls are serialized with every other Exec,
// View and Commit; writes of fn stay pending until the next Commit.
func (n *Node) Exec(fn func(p *pool.Pool) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn(n.pool)
}

// View runs fn against the pool for reads. Pending writes are visible.
func (n *Node) View(fn func(p *pool.Pool) error) error {
	return n.Exec(fn)
}

// EventDB returns the journal of committed events.
func (n *Node) EventDB() *eventdb.EventDB {
	return n.events
}

// Commit persists the pending writes in one leveldb batch and journals their
// events under blockNumber. Events go first: journaling a block again replaces
// its events, so a failed state write can be retried with the same number.
// Subscribers are notified after the node lock is released.
func (n *Node) Commit(blockNumber uint32) error {
	ev, err := n.commit(blockNumber)
	if err != nil {
		return err
	}
	n.commitFeed.Send(ev)
	return nil
}

func (n *Node) commit(blockNumber uint32) (*CommitEvent, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	stage := n.state.Stage()
	evs := stage.Events()
	if len(evs) > 0 {
		if err := n.events.Write(blockNumber, evs); err != nil {
			return nil, err
		}
	}
	slots := stage.Len()
	if err := stage.Commit(); err != nil {
		return nil, err
	}
	metricCommittedBlocks().Add(1)
	n.observeValidators()
	logger.Debug("block committed", "number", blockNumber, "slots", slots, "events", len(evs))

	return &CommitEvent{BlockNumber: blockNumber, Slots: slots, Events: evs}, nil
}

func (n *Node) observeValidators() {
	deposited, reported, err := n.validatorCounts()
	if err != nil {
		logger.Warn("validator counters unavailable", "err", err)
		return
	}
	setValidatorsGauge(deposited, reported)
}

func (n *Node) validatorCounts() (deposited, reported uint64, err error) {
	l := n.pool.Ledger()
	if deposited, err = l.DepositedValidators(); err != nil {
		return 0, 0, err
	}
	if reported, err = l.ReportedValidators(); err != nil {
		return 0, 0, err
	}
	return deposited, reported, nil
}

// SubscribeCommits delivers a CommitEvent to ch after each Commit.
// Commit blocks until every subscriber received the event or Close is called.
func (n *Node) SubscribeCommits(ch chan *CommitEvent) event.Subscription {
	return n.scope.Track(n.commitFeed.Subscribe(ch))
}

// Close drops pending writes and closes the stores.
func (n *Node) Close() error {
	// unsubscribing first releases a Commit blocked on a stalled subscriber
	n.scope.Close()

	n.mu.Lock()
	defer n.mu.Unlock()

	var errs []error
	if err := n.events.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := n.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "close node (%d errors)", len(errs))
	}
	logger.Info("node closed")
	return nil
}
