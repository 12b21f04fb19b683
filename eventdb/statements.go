// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"database/sql"

	"github.com/pkg/errors"
)

const (
	newestSeqQuery   = "SELECT MAX(seq) FROM event"
	deleteRangeQuery = "DELETE FROM event WHERE seq >= ? AND seq < ?"
	truncateQuery    = "DELETE FROM event WHERE seq >= ?"
	insertQuery      = "INSERT INTO event(seq, address, topic0, topic1, topic2, topic3, topic4, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
)

// statements holds the fixed queries of the journal, prepared once on open.
// Filters are built per call and are not cached.
type statements struct {
	newestSeq   *sql.Stmt
	deleteRange *sql.Stmt
	truncate    *sql.Stmt
	insert      *sql.Stmt
}

func prepareStatements(db *sql.DB) (*statements, error) {
	var (
		s    statements
		err  error
		list = []struct {
			dst   **sql.Stmt
			query string
		}{
			{&s.newestSeq, newestSeqQuery},
			{&s.deleteRange, deleteRangeQuery},
			{&s.truncate, truncateQuery},
			{&s.insert, insertQuery},
		}
	)
	for _, item := range list {
		if *item.dst, err = db.Prepare(item.query); err != nil {
			s.close()
			return nil, errors.Wrapf(err, "prepare %q", item.query)
		}
	}
	return &s, nil
}

func (s *statements) close() {
	for _, stmt := range []*sql.Stmt{s.newestSeq, s.deleteRange, s.truncate, s.insert} {
		if stmt != nil {
			stmt.Close()
		}
	}
}
