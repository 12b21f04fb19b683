// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/eventdb"
	"github.com/lsdcore/lsd/lsd"
)

type eventsAPI struct {
	db    *eventdb.EventDB
	limit uint64
}

type Event struct {
	BlockNumber uint32        `json:"blockNumber"`
	Index       uint32        `json:"index"`
	Address     lsd.Address   `json:"address"`
	Topics      []lsd.Bytes32 `json:"topics"`
	Data        string        `json:"data"`
}

func convertEvent(e *eventdb.Event) *Event {
	out := &Event{
		BlockNumber: e.BlockNumber,
		Index:       e.Index,
		Address:     e.Address,
		Topics:      make([]lsd.Bytes32, 0, eventdb.MaxTopics),
		Data:        fmt.Sprintf("0x%x", e.Data),
	}
	for _, t := range e.Topics {
		if t != nil {
			out.Topics = append(out.Topics, *t)
		}
	}
	return out
}

// parseFilter reads address, topic0..topic4, from, to, offset, limit and order from the query.
func (a *eventsAPI) parseFilter(req *http.Request) (*eventdb.EventFilter, error) {
	q := req.URL.Query()
	var (
		criteria eventdb.EventCriteria
		filter   = &eventdb.EventFilter{Order: eventdb.ASC, Options: &eventdb.Options{Limit: a.limit}}
	)
	if s := q.Get("address"); s != "" {
		addr, err := lsd.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, "address")
		}
		criteria.Address = addr
	}
	for i := range criteria.Topics {
		name := fmt.Sprintf("topic%d", i)
		if s := q.Get(name); s != "" {
			topic, err := lsd.ParseBytes32(s)
			if err != nil {
				return nil, errors.WithMessage(err, name)
			}
			criteria.Topics[i] = &topic
		}
	}
	filter.CriteriaSet = []*eventdb.EventCriteria{&criteria}

	parse := func(name string, max uint64) (uint64, bool, error) {
		s := q.Get(name)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil || v > max {
			return 0, false, errors.Errorf("%s: invalid value %q", name, s)
		}
		return v, true, nil
	}
	from, hasFrom, err := parse("from", math.MaxUint32)
	if err != nil {
		return nil, err
	}
	to, hasTo, err := parse("to", math.MaxUint32)
	if err != nil {
		return nil, err
	}
	if hasFrom || hasTo {
		if !hasTo {
			to = math.MaxUint32
		}
		filter.Range = &eventdb.Range{From: uint32(from), To: uint32(to)}
	}
	if offset, ok, err := parse("offset", math.MaxInt64); err != nil {
		return nil, err
	} else if ok {
		filter.Options.Offset = offset
	}
	if limit, ok, err := parse("limit", a.limit); err != nil {
		return nil, err
	} else if ok {
		filter.Options.Limit = limit
	}

	switch q.Get("order") {
	case "", "asc":
	case "desc":
		filter.Order = eventdb.DESC
	default:
		return nil, errors.Errorf("order: invalid value %q", q.Get("order"))
	}
	return filter, nil
}

func (a *eventsAPI) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := a.parseFilter(req)
	if err != nil {
		return invalidRequest(err)
	}
	events, err := a.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Event, 0, len(events))
	for _, e := range events {
		out = append(out, convertEvent(e))
	}
	return respond(w, out)
}
