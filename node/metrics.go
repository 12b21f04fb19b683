// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/lsdcore/lsd/metrics"

var metricCommittedBlocks = metrics.LazyLoadCounter("node_committed_blocks_count")

var metricValidators = metrics.LazyLoadGaugeVec("node_validators_count", []string{"kind"})

func setValidatorsGauge(deposited, reported uint64) {
	metricValidators().SetWithLabel(int64(deposited), map[string]string{"kind": "deposited"})
	metricValidators().SetWithLabel(int64(reported), map[string]string{"kind": "reported"})
}
