// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

import (
	"math"

	"github.com/holiman/uint256"
)

// Constants of the protocol.
const (
	// RebasePrecision is the parts-per-billion base of the rebase limiter.
	RebasePrecision uint64 = 1e9
	// UnlimitedRebase disables the positive rebase limiter.
	UnlimitedRebase uint64 = math.MaxUint64

	// TotalBasisPoints is 100% in basis points.
	TotalBasisPoints uint64 = 10000

	// MaxMembers is the committee size cap, bounded by the width of the report bitmap.
	MaxMembers = 256

	// MaxLimitGrowthBlocks bounds maxLimit / growthPerBlock of the stake limit.
	MaxLimitGrowthBlocks uint64 = 1 << 32

	// SecondsPerYear is used to annualize balance growth.
	SecondsPerYear uint64 = 365 * 24 * 60 * 60
)

// DepositSize is the fixed value locked by one validator deposit (32 ether in wei).
var DepositSize = new(uint256.Int).Mul(uint256.NewInt(32), uint256.NewInt(1e18))
