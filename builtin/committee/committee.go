// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package committee

import (
	"math/bits"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/builtin/packedstats"
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/builtin/solidity"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/state"
)

var (
	logger = log.WithContext("pkg", "committee")

	slotMemberCount   = lsd.BytesToBytes32([]byte("member-count"))
	slotMembers       = lsd.BytesToBytes32([]byte("members"))
	slotMemberIndex   = lsd.BytesToBytes32([]byte("member-index"))
	slotQuorum        = lsd.BytesToBytes32([]byte("quorum"))
	slotExpectedEpoch = lsd.BytesToBytes32([]byte("expected-epoch"))
	slotBitmap        = lsd.BytesToBytes32([]byte("report-bitmap"))
	slotVariantCount  = lsd.BytesToBytes32([]byte("variant-count"))
	slotVariants      = lsd.BytesToBytes32([]byte("variants"))
	slotConsensus     = lsd.BytesToBytes32([]byte("consensus"))
	slotProcessed     = lsd.BytesToBytes32([]byte("processed-epoch"))
	slotVotes         = lsd.BytesToBytes32([]byte("votes"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Per member statistics.
const (
	FieldSubmitted packedstats.Field = 0
	FieldAgreed    packedstats.Field = 1
)

// Variant is a distinct report hash of the current round and its support.
type Variant struct {
	Hash  lsd.Bytes32
	Count uint64
}

type consensus struct {
	Epoch   uint64
	Variant uint64
}

type vote struct {
	Epoch uint64
	Hash  lsd.Bytes32
}

// Committee collects report hashes from its members and declares the hash
// supported by a quorum, as long as no other hash ties it.
type Committee struct {
	sctx *solidity.Context
	auth policy.Authorizer

	memberCount   *solidity.Value[uint64]
	members       *solidity.Mapping[solidity.Uint64Key, lsd.Address]
	memberIndex   *solidity.Mapping[lsd.Address, uint64] // index + 1, 0 for non members
	quorum        *solidity.Value[uint64]
	expectedEpoch *solidity.Value[uint64]
	bitmap        *solidity.Uint256
	variantCount  *solidity.Value[uint64]
	variants      *solidity.Mapping[solidity.Uint64Key, *Variant]
	consensus     *solidity.Value[*consensus]
	processed     *solidity.Value[uint64] // epoch + 1 of the last processed round
	votes         *solidity.Mapping[lsd.Address, *vote]
	stats         *packedstats.Store
}

// New create a new instance.
func New(addr lsd.Address, state *state.State, auth policy.Authorizer) *Committee {
	sctx := solidity.NewContext(addr, state)
	return &Committee{
		sctx:          sctx,
		auth:          auth,
		memberCount:   solidity.NewValue[uint64](sctx, slotMemberCount),
		members:       solidity.NewMapping[solidity.Uint64Key, lsd.Address](sctx, slotMembers),
		memberIndex:   solidity.NewMapping[lsd.Address, uint64](sctx, slotMemberIndex),
		quorum:        solidity.NewValue[uint64](sctx, slotQuorum),
		expectedEpoch: solidity.NewValue[uint64](sctx, slotExpectedEpoch),
		bitmap:        solidity.NewUint256(sctx, slotBitmap),
		variantCount:  solidity.NewValue[uint64](sctx, slotVariantCount),
		variants:      solidity.NewMapping[solidity.Uint64Key, *Variant](sctx, slotVariants),
		consensus:     solidity.NewValue[*consensus](sctx, slotConsensus),
		processed:     solidity.NewValue[uint64](sctx, slotProcessed),
		votes:         solidity.NewMapping[lsd.Address, *vote](sctx, slotVotes),
		stats:         packedstats.New(sctx, "member-stats", nil),
	}
}

//
// Getters - no state change
//

func (c *Committee) Members() ([]lsd.Address, error) {
	count, err := c.memberCount.Get()
	if err != nil {
		return nil, err
	}
	members := make([]lsd.Address, 0, count)
	for i := range count {
		m, err := c.members.Get(solidity.Uint64Key(i))
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (c *Committee) IsMember(addr lsd.Address) (bool, error) {
	idx, err := c.memberIndex.Get(addr)
	return idx != 0, err
}

func (c *Committee) Quorum() (uint64, error) {
	return c.quorum.Get()
}

// ExpectedEpoch is the epoch the current round collects reports for.
func (c *Committee) ExpectedEpoch() (uint64, error) {
	return c.expectedEpoch.Get()
}

// Variants lists the distinct report hashes of the current round in order of first appearance.
func (c *Committee) Variants() ([]Variant, error) {
	count, err := c.variantCount.Get()
	if err != nil {
		return nil, err
	}
	variants := make([]Variant, 0, count)
	for i := range count {
		v, err := c.variants.Get(solidity.Uint64Key(i))
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errors.Errorf("variant %d missing", i)
		}
		variants = append(variants, *v)
	}
	return variants, nil
}

// ReportedCount is the number of members that reported in the current round.
func (c *Committee) ReportedCount() (int, error) {
	bitmap, err := c.bitmap.Get()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, word := range bitmap {
		n += bits.OnesCount64(word)
	}
	return n, nil
}

// ConsensusReport returns the hash and epoch the committee agreed on, ok is false without consensus.
func (c *Committee) ConsensusReport() (hash lsd.Bytes32, epoch uint64, ok bool, err error) {
	cons, err := c.consensus.Get()
	if err != nil || cons == nil {
		return
	}
	v, err := c.variants.Get(solidity.Uint64Key(cons.Variant))
	if err != nil || v == nil {
		return
	}
	return v.Hash, cons.Epoch, true, nil
}

// IsProcessed reports whether the round of epoch was already applied.
func (c *Committee) IsProcessed(epoch uint64) (bool, error) {
	processed, err := c.processed.Get()
	if err != nil {
		return false, err
	}
	return processed != 0 && epoch <= processed-1, nil
}

// MemberStats returns the submitted and agreed report counts of a member.
func (c *Committee) MemberStats(addr lsd.Address) (submitted, agreed uint64, err error) {
	counters, err := c.stats.Get(addr)
	return counters[FieldSubmitted], counters[FieldAgreed], err
}

//
// Setters - state change
//

func (c *Committee) AddMember(caller, addr lsd.Address) error {
	if err := c.auth.Authorize(caller, policy.RoleManageMembers); err != nil {
		return err
	}
	if addr.IsZero() {
		return reverts.ErrZeroAddress
	}
	if ok, err := c.IsMember(addr); err != nil {
		return err
	} else if ok {
		return reverts.Errorf(reverts.ErrMemberExists, "%s", addr)
	}
	count, err := c.memberCount.Get()
	if err != nil {
		return err
	}
	if count >= lsd.MaxMembers {
		return reverts.ErrTooManyMembers
	}

	if err := c.members.Set(solidity.Uint64Key(count), addr); err != nil {
		return err
	}
	if err := c.memberIndex.Set(addr, count+1); err != nil {
		return err
	}
	if err := c.memberCount.Set(count + 1); err != nil {
		return err
	}
	if err := c.emitMemberChanged(MemberAddedEvent, addr, count+1); err != nil {
		return err
	}
	logger.Info("member added", "member", addr, "members", count+1)
	return nil
}

// RemoveMember drops a member and restarts the current round, since the last
// member takes over the freed bitmap index.
func (c *Committee) RemoveMember(caller, addr lsd.Address) error {
	if err := c.auth.Authorize(caller, policy.RoleManageMembers); err != nil {
		return err
	}
	idx, err := c.memberIndex.Get(addr)
	if err != nil {
		return err
	}
	if idx == 0 {
		return reverts.Errorf(reverts.ErrMemberNotFound, "%s", addr)
	}
	idx--

	count, err := c.memberCount.Get()
	if err != nil {
		return err
	}
	last := count - 1
	if idx != last {
		moved, err := c.members.Get(solidity.Uint64Key(last))
		if err != nil {
			return err
		}
		if err := c.members.Set(solidity.Uint64Key(idx), moved); err != nil {
			return err
		}
		if err := c.memberIndex.Set(moved, idx+1); err != nil {
			return err
		}
	}
	c.members.Delete(solidity.Uint64Key(last))
	c.memberIndex.Delete(addr)
	if err := c.memberCount.Set(last); err != nil {
		return err
	}

	c.resetRound()
	if err := c.emitMemberChanged(MemberRemovedEvent, addr, last); err != nil {
		return err
	}
	logger.Info("member removed", "member", addr, "members", last)
	return nil
}

// SetQuorum changes the threshold and re-evaluates the current round against it.
func (c *Committee) SetQuorum(caller lsd.Address, quorum uint64) error {
	if err := c.auth.Authorize(caller, policy.RoleManageQuorum); err != nil {
		return err
	}
	if quorum == 0 {
		return reverts.Errorf(reverts.ErrInvalidQuorum, "zero quorum")
	}
	prev, err := c.quorum.Get()
	if err != nil {
		return err
	}
	if prev == quorum {
		return nil
	}
	if err := c.quorum.Set(quorum); err != nil {
		return err
	}
	if err := c.emitQuorumChanged(quorum, prev); err != nil {
		return err
	}
	logger.Info("quorum changed", "quorum", quorum, "prev", prev)

	epoch, err := c.expectedEpoch.Get()
	if err != nil {
		return err
	}
	if processed, err := c.IsProcessed(epoch); err != nil || processed {
		return err
	}
	return c.evaluate(epoch)
}

// SubmitReport records the report hash of member for epoch.
func (c *Committee) SubmitReport(member lsd.Address, epoch uint64, hash lsd.Bytes32) error {
	idx, err := c.memberIndex.Get(member)
	if err != nil {
		return err
	}
	if idx == 0 {
		metricReports().AddWithLabel(1, map[string]string{"outcome": "unknown"})
		return reverts.Errorf(reverts.ErrUnknownMember, "%s", member)
	}
	idx--

	expected, err := c.expectedEpoch.Get()
	if err != nil {
		return err
	}
	processed, err := c.IsProcessed(epoch)
	if err != nil {
		return err
	}
	if epoch < expected || processed {
		metricReports().AddWithLabel(1, map[string]string{"outcome": "stale"})
		return reverts.Errorf(reverts.ErrEpochTooOld, "epoch %d, expecting %d", epoch, expected)
	}
	if epoch > expected {
		c.resetRound()
		if err := c.expectedEpoch.Set(epoch); err != nil {
			return err
		}
		logger.Debug("round advanced", "epoch", epoch, "prev", expected)
	}

	bitmap, err := c.bitmap.Get()
	if err != nil {
		return err
	}
	bit := new(uint256.Int).Lsh(uint256.NewInt(1), uint(idx))
	if !new(uint256.Int).And(bitmap, bit).IsZero() {
		metricReports().AddWithLabel(1, map[string]string{"outcome": "duplicate"})
		return reverts.Errorf(reverts.ErrDuplicateReport, "%s in epoch %d", member, epoch)
	}
	c.bitmap.Set(bitmap.Or(bitmap, bit))

	if err := c.countVariant(hash); err != nil {
		return err
	}
	if err := c.votes.Set(member, &vote{Epoch: epoch, Hash: hash}); err != nil {
		return err
	}
	if _, err := c.stats.Add(member, FieldSubmitted, 1); err != nil {
		return err
	}
	if err := c.emitReportSubmitted(member, hash, epoch); err != nil {
		return err
	}
	metricReports().AddWithLabel(1, map[string]string{"outcome": "accepted"})
	logger.Debug("report submitted", "member", member, "epoch", epoch, "hash", hash.AbbrevString())

	return c.evaluate(epoch)
}

// MarkProcessed closes the current round after its consensus report was applied,
// and credits the members who reported the winning hash.
func (c *Committee) MarkProcessed() error {
	hash, epoch, ok, err := c.ConsensusReport()
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNoConsensus
	}
	if processed, err := c.IsProcessed(epoch); err != nil {
		return err
	} else if processed {
		return reverts.Errorf(reverts.ErrEpochTooOld, "epoch %d already processed", epoch)
	}
	if err := c.processed.Set(epoch + 1); err != nil {
		return err
	}

	members, err := c.Members()
	if err != nil {
		return err
	}
	bitmap, err := c.bitmap.Get()
	if err != nil {
		return err
	}
	for i, m := range members {
		// a vote whose bit was cleared by a round reset no longer counts
		bit := new(uint256.Int).Lsh(uint256.NewInt(1), uint(i))
		if new(uint256.Int).And(bitmap, bit).IsZero() {
			continue
		}
		v, err := c.votes.Get(m)
		if err != nil {
			return err
		}
		if v != nil && v.Epoch == epoch && v.Hash == hash {
			if _, err := c.stats.Add(m, FieldAgreed, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// countVariant adds one vote for hash, creating its variant on first appearance.
func (c *Committee) countVariant(hash lsd.Bytes32) error {
	count, err := c.variantCount.Get()
	if err != nil {
		return err
	}
	for i := range count {
		v, err := c.variants.Get(solidity.Uint64Key(i))
		if err != nil {
			return err
		}
		if v.Hash == hash {
			v.Count++
			return c.variants.Set(solidity.Uint64Key(i), v)
		}
	}
	if err := c.variants.Set(solidity.Uint64Key(count), &Variant{Hash: hash, Count: 1}); err != nil {
		return err
	}
	return c.variantCount.Set(count + 1)
}

// evaluate sets the consensus to the unique variant with the highest support at
// or above quorum, and clears it otherwise.
func (c *Committee) evaluate(epoch uint64) error {
	quorum, err := c.quorum.Get()
	if err != nil {
		return err
	}
	variants, err := c.Variants()
	if err != nil {
		return err
	}
	winner, support, found := FindConsensus(variants, quorum)

	prev, err := c.consensus.Get()
	if err != nil {
		return err
	}
	if !found {
		if prev != nil {
			c.consensus.Clear()
			logger.Info("consensus lost", "epoch", epoch)
		}
		return nil
	}
	if prev != nil && prev.Variant == uint64(winner) && prev.Epoch == epoch {
		return nil
	}
	if err := c.consensus.Set(&consensus{Epoch: epoch, Variant: uint64(winner)}); err != nil {
		return err
	}
	hash := variants[winner].Hash
	if err := c.emitConsensusReached(hash, epoch, support); err != nil {
		return err
	}
	metricConsensus().Add(1)
	logger.Info("consensus reached", "epoch", epoch, "hash", hash.AbbrevString(), "support", support, "quorum", quorum)
	return nil
}

// FindConsensus returns the index of the variant supported by at least quorum
// votes, provided no other variant has the same support.
func FindConsensus(variants []Variant, quorum uint64) (index int, support uint64, ok bool) {
	if quorum == 0 {
		return 0, 0, false
	}
	index = -1
	tie := false
	for i, v := range variants {
		switch {
		case v.Count > support:
			index, support, tie = i, v.Count, false
		case v.Count == support:
			tie = true
		}
	}
	if index < 0 || tie || support < quorum {
		return 0, 0, false
	}
	return index, support, true
}

// resetRound clears the bitmap, the variants and the consensus of the current round.
func (c *Committee) resetRound() {
	c.bitmap.Set(new(uint256.Int))
	c.variantCount.Clear()
	c.consensus.Clear()
}
