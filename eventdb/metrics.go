// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/lsdcore/lsd/metrics"
)

var (
	metricWrittenEvents     = metrics.LazyLoadCounter("eventdb_written_events_count")
	metricQueryOrderCounter = metrics.LazyLoadCounterVec("eventdb_query_order_count", []string{"order"})
	metricCriteriaLength    = metrics.LazyLoadHistogram("eventdb_criteria_length", []int64{0, 1, 2, 5, 10, 25, 100})
)

func metricsHandleEventsFilter(filter *EventFilter) {
	order := "asc"
	if filter.Order == DESC {
		order = "desc"
	}
	metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": order})
	metricCriteriaLength().Observe(int64(len(filter.CriteriaSet)))
}
