// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounting

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/metrics"
)

var (
	metricReconcileDuration = metrics.LazyLoadHistogram("accounting_reconcile_duration_ms", metrics.BucketDurationMs)
	// in units of 1e9 shares
	metricFeeShares = metrics.LazyLoadCounter("accounting_fee_shares_count")

	feeUnit = uint256.NewInt(1e9)
)

func observeFeeShares(shares *uint256.Int) {
	scaled := new(uint256.Int).Div(shares, feeUnit)
	if !scaled.IsUint64() || scaled.Uint64() > math.MaxInt64 {
		metricFeeShares().Add(math.MaxInt64)
		return
	}
	metricFeeShares().Add(int64(scaled.Uint64()))
}
