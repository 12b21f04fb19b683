// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounting

import (
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/lsd"
)

// ValidatorAllocator turns buffered value into validator deposits.
type ValidatorAllocator interface {
	// Allocate grants up to requested deposits and returns the key material of each.
	Allocate(requested uint64) (granted uint64, keys [][]byte, err error)
}

// WithdrawalEscrow is the withdrawal request queue.
type WithdrawalEscrow interface {
	// QuoteFinalization returns the value locked and the shares burnt when
	// finalizing requests up to upToID at rate.
	QuoteFinalization(upToID uint64, rate *uint256.Int) (valueNeeded, sharesToBurn *uint256.Int, err error)
	// Finalize hands value to the queue for requests up to upToID.
	Finalize(upToID uint64, value *uint256.Int) error
	// Holder is the ledger account holding the shares of queued requests.
	Holder() lsd.Address
}

// FeeRecipient receives WeightBP of the total fee, both in basis points of the rewards.
type FeeRecipient struct {
	Address  lsd.Address
	WeightBP uint64
}

// FeeDistributionConfig describes how protocol fees are split.
type FeeDistributionConfig interface {
	Recipients() ([]FeeRecipient, error)
	TotalFeeBasisPoints() (uint64, error)
	// Treasury receives what is left after the recipients.
	Treasury() lsd.Address
}

// CoverageRequester asks for shares to be burnt to cover a deficit.
type CoverageRequester interface {
	PendingBurnRequest() (*uint256.Int, error)
	// Holder is the ledger account holding the shares to burn.
	Holder() lsd.Address
	// CommitBurn acknowledges shares burnt on behalf of the request.
	CommitBurn(shares *uint256.Int) error
}

// RewardsVault holds value waiting to be pulled into the pool buffer.
type RewardsVault interface {
	Collect(amount *uint256.Int) error
}

// Collaborators groups the external components a reconciliation talks to.
// Only Fees is required; Escrow is required to finalize withdrawals.
type Collaborators struct {
	Escrow          WithdrawalEscrow
	Fees            FeeDistributionConfig
	Coverage        CoverageRequester
	WithdrawalVault RewardsVault
	RewardsVault    RewardsVault
}
