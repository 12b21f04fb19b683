// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/metrics"
)

var (
	metricSharesMinted = metrics.LazyLoadCounter("ledger_shares_minted_count")
	// in units of 1e9 shares, so the gauge does not saturate at 18 decimals
	metricTotalShares = metrics.LazyLoadGauge("ledger_total_shares")

	gaugeUnit = uint256.NewInt(1e9)
)

func observeTotalShares(total *uint256.Int) {
	scaled := new(uint256.Int).Div(total, gaugeUnit)
	if !scaled.IsUint64() || scaled.Uint64() > math.MaxInt64 {
		metricTotalShares().Set(math.MaxInt64)
		return
	}
	metricTotalShares().Set(int64(scaled.Uint64()))
}
