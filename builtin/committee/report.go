// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package committee

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/lsd"
)

// Report is the content members agree on. Members hash it independently with
// Hash and submit only the hash; the reconciler is fed the full report.
type Report struct {
	EpochID            uint64
	TimeElapsed        uint64 // seconds since the previous report
	ReportedValidators uint64
	ExternalBalance    *uint256.Int
	WithdrawalVault    *uint256.Int
	RewardsVault       *uint256.Int
	FinalizeUpToID     uint64
	FinalizationRate   *uint256.Int
}

// Hash is keccak256 of the rlp encoding of the report.
func (r *Report) Hash() lsd.Bytes32 {
	data, err := rlp.EncodeToBytes(r.normalized())
	if err != nil {
		panic(err)
	}
	return lsd.Keccak256(data)
}

// normalized replaces nil amounts with zero so equal reports hash equally.
func (r *Report) normalized() *Report {
	cpy := *r
	for _, v := range []**uint256.Int{&cpy.ExternalBalance, &cpy.WithdrawalVault, &cpy.RewardsVault, &cpy.FinalizationRate} {
		if *v == nil {
			*v = new(uint256.Int)
		}
	}
	return &cpy
}
