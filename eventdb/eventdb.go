// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb journals committed events in sqlite and filters them.
package eventdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
)

var logger = log.WithContext("pkg", "eventdb")

func SetLogger(l log.Logger) {
	logger = l
}

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmts         *statements
}

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" databases alive and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	stmts, err := prepareStatements(db)
	if err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", driverVer)
	return &EventDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmts:         stmts,
	}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close close the event db.
func (db *EventDB) Close() error {
	db.stmts.close()
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// NewestBlockNumber returns the block number of the newest event, ok is false when empty.
func (db *EventDB) NewestBlockNumber() (num uint32, ok bool, err error) {
	var seq sql.NullInt64
	if err := db.stmts.newestSeq.QueryRow().Scan(&seq); err != nil {
		return 0, false, errors.Wrap(err, "query newest")
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return sequence(seq.Int64).BlockNumber(), true, nil
}

// Write journals events of the block in one transaction.
// Writing a block again replaces its events.
func (db *EventDB) Write(blockNum uint32, events []*lsd.Event) error {
	if len(events) > math.MaxInt32 {
		return errors.New("too many events in one block")
	}
	err := db.execInTx(func(tx *sql.Tx) error {
		if _, err := tx.Stmt(db.stmts.deleteRange).Exec(
			newSequence(blockNum, 0), newSequence(blockNum, 0)+math.MaxInt32+1); err != nil {
			return err
		}
		stmt := tx.Stmt(db.stmts.insert)
		for i, ev := range events {
			if len(ev.Topics) > MaxTopics {
				return errors.Errorf("event %d has %d topics", i, len(ev.Topics))
			}
			e := newEvent(blockNum, uint32(i), ev)
			if _, err := stmt.Exec(
				newSequence(blockNum, uint32(i)),
				e.Address.Bytes(),
				topicValue(e.Topics[0]),
				topicValue(e.Topics[1]),
				topicValue(e.Topics[2]),
				topicValue(e.Topics[3]),
				topicValue(e.Topics[4]),
				e.Data,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "write events of block %d", blockNum)
	}
	metricWrittenEvents().Add(int64(len(events)))
	return nil
}

// Truncate deletes events from blockNum on.
func (db *EventDB) Truncate(blockNum uint32) error {
	if _, err := db.stmts.truncate.Exec(newSequence(blockNum, 0)); err != nil {
		return errors.Wrapf(err, "truncate from block %d", blockNum)
	}
	return nil
}

func (db *EventDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, address, topic0, topic1, topic2, topic3, topic4, data FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT seq, address, topic0, topic1, topic2, topic3, topic4, data FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, newSequence(filter.Range.From, 0))
		stmt += " AND seq >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, newSequence(filter.Range.To, math.MaxInt32))
			stmt += " AND seq <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ?"
		}
		for j, topic := range criteria.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				stmt += fmt.Sprintf(" AND topic%v = ?", j)
			}
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     int64
			address []byte
			topics  [MaxTopics][]byte
			data    []byte
		)
		if err := rows.Scan(
			&seq,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&topics[4],
			&data,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		event := &Event{
			BlockNumber: sequence(seq).BlockNumber(),
			Index:       sequence(seq).Index(),
			Address:     lsd.BytesToAddress(address),
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := lsd.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate events")
	}
	return events, nil
}

func (db *EventDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func topicValue(topic *lsd.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
