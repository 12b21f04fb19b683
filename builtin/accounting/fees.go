// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounting

import (
	"github.com/holiman/uint256"

	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/lsd"
)

// StaticFees is a FeeDistributionConfig fixed at construction.
type StaticFees struct {
	totalBP    uint64
	treasury   lsd.Address
	recipients []FeeRecipient
}

func NewStaticFees(totalBP uint64, treasury lsd.Address, recipients []FeeRecipient) (*StaticFees, error) {
	if err := ValidateFees(totalBP, treasury, recipients); err != nil {
		return nil, err
	}
	return &StaticFees{
		totalBP:    totalBP,
		treasury:   treasury,
		recipients: append([]FeeRecipient(nil), recipients...),
	}, nil
}

func (f *StaticFees) Recipients() ([]FeeRecipient, error) { return f.recipients, nil }
func (f *StaticFees) TotalFeeBasisPoints() (uint64, error) { return f.totalBP, nil }
func (f *StaticFees) Treasury() lsd.Address                { return f.treasury }

// ValidateFees checks that the recipients fit in the total fee and that the total fits in 100%.
func ValidateFees(totalBP uint64, treasury lsd.Address, recipients []FeeRecipient) error {
	if totalBP > lsd.TotalBasisPoints {
		return reverts.Errorf(reverts.ErrInvalidConfig, "total fee %d bp above 100%%", totalBP)
	}
	var sum uint64
	for _, r := range recipients {
		if r.Address.IsZero() {
			return reverts.Errorf(reverts.ErrZeroAddress, "fee recipient")
		}
		sum += r.WeightBP
		if sum > totalBP {
			return reverts.Errorf(reverts.ErrInvalidConfig, "recipient weights above total fee %d bp", totalBP)
		}
	}
	if totalBP > 0 && treasury.IsZero() {
		return reverts.Errorf(reverts.ErrZeroAddress, "treasury")
	}
	return nil
}

// FeeShares computes the shares minted so that fee recipients end up owning
// totalBP of the rewards:
//
//	rewards * totalBP * preShares / ((preValue + rewards) * TotalBasisPoints - rewards * totalBP)
func FeeShares(rewards *uint256.Int, totalBP uint64, preValue, preShares *uint256.Int) (*uint256.Int, error) {
	if rewards.IsZero() || totalBP == 0 || preShares.IsZero() {
		return new(uint256.Int), nil
	}
	fee := uint256.NewInt(totalBP)

	num, overflow := new(uint256.Int).MulOverflow(rewards, fee)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	withRewards, overflow := new(uint256.Int).AddOverflow(preValue, rewards)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	den, overflow := withRewards.MulOverflow(withRewards, uint256.NewInt(lsd.TotalBasisPoints))
	if overflow {
		return nil, reverts.ErrOverflow
	}
	// num <= den since totalBP <= TotalBasisPoints
	den.Sub(den, num)
	if den.IsZero() {
		return new(uint256.Int), nil
	}
	shares, overflow := new(uint256.Int).MulDivOverflow(num, preShares, den)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	return shares, nil
}

// FeeSplit is the share amount minted to one address.
type FeeSplit struct {
	Address lsd.Address
	Shares  *uint256.Int
}

// SplitFeeShares divides feeShares by recipient weight, the treasury gets the remainder.
func SplitFeeShares(feeShares *uint256.Int, totalBP uint64, treasury lsd.Address, recipients []FeeRecipient) []FeeSplit {
	if feeShares.IsZero() || totalBP == 0 {
		return nil
	}
	var splits []FeeSplit
	remainder := new(uint256.Int).Set(feeShares)
	for _, r := range recipients {
		// weight <= totalBP, so the quotient never exceeds feeShares
		shares, _ := new(uint256.Int).MulDivOverflow(feeShares, uint256.NewInt(r.WeightBP), uint256.NewInt(totalBP))
		if shares.IsZero() {
			continue
		}
		remainder.Sub(remainder, shares)
		splits = append(splits, FeeSplit{r.Address, shares})
	}
	if !remainder.IsZero() {
		splits = append(splits, FeeSplit{treasury, remainder})
	}
	return splits
}
