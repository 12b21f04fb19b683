// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package committee

import "github.com/lsdcore/lsd/metrics"

var (
	metricReports   = metrics.LazyLoadCounterVec("committee_reports_count", []string{"outcome"})
	metricConsensus = metrics.LazyLoadCounter("committee_consensus_count")
)
