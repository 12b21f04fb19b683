// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Code identifies a protocol rejection independently of its message.
type Code uint16

const (
	CodeInvalidAmount Code = iota + 1
	CodeInsufficientShares
	CodeZeroAddress
	CodeInvalidConfig
	CodeLimitExceeded
	CodeReportedMoreThanDeposited
	CodeReportedFewerValidators
	CodeUnknownMember
	CodeDuplicateReport
	CodeInvalidQuorum
	CodeMemberNotFound
	CodeMemberExists
	CodeTooManyMembers
	CodeOverflow
	CodeUnderflow
	CodeUnauthorized
	CodeStakingPaused
	CodeEpochTooOld
	CodeIncorrectCLBalanceIncrease
	CodeNotInitialized
	CodeAlreadyInitialized
	CodeInsufficientBuffer
	CodeNoConsensus
)

var codeNames = map[Code]string{
	CodeInvalidAmount:              "InvalidAmount",
	CodeInsufficientShares:         "InsufficientShares",
	CodeZeroAddress:                "ZeroAddress",
	CodeInvalidConfig:              "InvalidConfig",
	CodeLimitExceeded:              "LimitExceeded",
	CodeReportedMoreThanDeposited:  "ReportedMoreThanDeposited",
	CodeReportedFewerValidators:    "ReportedFewerValidators",
	CodeUnknownMember:              "UnknownMember",
	CodeDuplicateReport:            "DuplicateReport",
	CodeInvalidQuorum:              "InvalidQuorum",
	CodeMemberNotFound:             "MemberNotFound",
	CodeMemberExists:               "MemberExists",
	CodeTooManyMembers:             "TooManyMembers",
	CodeOverflow:                   "Overflow",
	CodeUnderflow:                  "Underflow",
	CodeUnauthorized:               "Unauthorized",
	CodeStakingPaused:              "StakingPaused",
	CodeEpochTooOld:                "EpochTooOld",
	CodeIncorrectCLBalanceIncrease: "IncorrectCLBalanceIncrease",
	CodeNotInitialized:             "NotInitialized",
	CodeAlreadyInitialized:         "AlreadyInitialized",
	CodeInsufficientBuffer:         "InsufficientBuffer",
	CodeNoConsensus:                "NoConsensus",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// Sentinels, compare with errors.Is.
var (
	ErrInvalidAmount              = New(CodeInvalidAmount, "invalid amount")
	ErrInsufficientShares         = New(CodeInsufficientShares, "insufficient shares")
	ErrZeroAddress                = New(CodeZeroAddress, "zero address")
	ErrInvalidConfig              = New(CodeInvalidConfig, "invalid config")
	ErrLimitExceeded              = New(CodeLimitExceeded, "stake limit exceeded")
	ErrReportedMoreThanDeposited  = New(CodeReportedMoreThanDeposited, "reported more validators than deposited")
	ErrReportedFewerValidators    = New(CodeReportedFewerValidators, "reported fewer validators than before")
	ErrUnknownMember              = New(CodeUnknownMember, "unknown member")
	ErrDuplicateReport            = New(CodeDuplicateReport, "member already reported this round")
	ErrInvalidQuorum              = New(CodeInvalidQuorum, "invalid quorum")
	ErrMemberNotFound             = New(CodeMemberNotFound, "member not found")
	ErrMemberExists               = New(CodeMemberExists, "member exists")
	ErrTooManyMembers             = New(CodeTooManyMembers, "too many members")
	ErrOverflow                   = New(CodeOverflow, "arithmetic overflow")
	ErrUnderflow                  = New(CodeUnderflow, "arithmetic underflow")
	ErrUnauthorized               = New(CodeUnauthorized, "unauthorized")
	ErrStakingPaused              = New(CodeStakingPaused, "staking paused")
	ErrEpochTooOld                = New(CodeEpochTooOld, "epoch too old")
	ErrIncorrectCLBalanceIncrease = New(CodeIncorrectCLBalanceIncrease, "incorrect consensus layer balance increase")
	ErrNotInitialized             = New(CodeNotInitialized, "not initialized")
	ErrAlreadyInitialized         = New(CodeAlreadyInitialized, "already initialized")
	ErrInsufficientBuffer         = New(CodeInsufficientBuffer, "insufficient buffer")
	ErrNoConsensus                = New(CodeNoConsensus, "no consensus report")
)

// ErrRevert is a protocol rejection. The operation that returned it had no effect.
type ErrRevert struct {
	Code    Code
	message string
}

func New(code Code, message string) *ErrRevert {
	return &ErrRevert{Code: code, message: message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Is matches any ErrRevert carrying the same code.
func (e *ErrRevert) Is(target error) bool {
	var t *ErrRevert
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Errorf returns a revert carrying the code of base and a formatted message.
func Errorf(base *ErrRevert, format string, args ...any) *ErrRevert {
	return &ErrRevert{Code: base.Code, message: base.message + ": " + fmt.Sprintf(format, args...)}
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve != nil
	}
	return false
}

// CodeOf extracts the code of a revert anywhere in the chain, 0 otherwise.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) && ve != nil {
		return ve.Code
	}
	return 0
}
