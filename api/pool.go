// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/lsdcore/lsd/builtin/pool"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/node"
)

type poolAPI struct {
	node *node.Node
}

type StakeLimit struct {
	MaxLimit       *uint256.Int `json:"maxLimit"`
	GrowthPerBlock *uint256.Int `json:"growthPerBlock"`
	PrevLimit      *uint256.Int `json:"prevLimit"`
	PrevBlock      uint64       `json:"prevBlock"`
	Paused         bool         `json:"paused"`
}

type Pool struct {
	SchemaVersion       uint64       `json:"schemaVersion"`
	TotalPooledValue    *uint256.Int `json:"totalPooledValue"`
	TotalShares         *uint256.Int `json:"totalShares"`
	Buffered            *uint256.Int `json:"buffered"`
	ExternalBalance     *uint256.Int `json:"externalBalance"`
	DepositedValidators uint64       `json:"depositedValidators"`
	ReportedValidators  uint64       `json:"reportedValidators"`
	StakeLimit          StakeLimit   `json:"stakeLimit"`
}

type Holder struct {
	Address lsd.Address  `json:"address"`
	Shares  *uint256.Int `json:"shares"`
	Balance *uint256.Int `json:"balance"`
}

type Variant struct {
	Hash  lsd.Bytes32 `json:"hash"`
	Count uint64      `json:"count"`
}

type Consensus struct {
	Hash  lsd.Bytes32 `json:"hash"`
	Epoch uint64      `json:"epoch"`
}

type Committee struct {
	Members       []lsd.Address `json:"members"`
	Quorum        uint64        `json:"quorum"`
	ExpectedEpoch uint64        `json:"expectedEpoch"`
	Variants      []Variant     `json:"variants"`
	Consensus     *Consensus    `json:"consensus"`
}

func (a *poolAPI) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	var out Pool
	err := a.node.View(func(p *pool.Pool) (err error) {
		l := p.Ledger()
		if out.SchemaVersion, err = p.SchemaVersion(); err != nil {
			return
		}
		if out.TotalPooledValue, err = l.TotalPooledValue(); err != nil {
			return
		}
		if out.TotalShares, err = l.TotalShares(); err != nil {
			return
		}
		if out.Buffered, err = l.Buffered(); err != nil {
			return
		}
		if out.ExternalBalance, err = l.ExternalBalance(); err != nil {
			return
		}
		if out.DepositedValidators, err = l.DepositedValidators(); err != nil {
			return
		}
		if out.ReportedValidators, err = l.ReportedValidators(); err != nil {
			return
		}
		limit, err := p.Limiter().Limit()
		if err != nil {
			return err
		}
		out.StakeLimit = StakeLimit{
			MaxLimit:       limit.MaxLimit,
			GrowthPerBlock: limit.GrowthPerBlock,
			PrevLimit:      limit.PrevLimit,
			PrevBlock:      limit.PrevBlockNumber,
			Paused:         limit.Paused,
		}
		return nil
	})
	if err != nil {
		return err
	}
	return respond(w, &out)
}

func (a *poolAPI) handleGetHolder(w http.ResponseWriter, req *http.Request) error {
	addr, err := lsd.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return invalidRequest(errors.WithMessage(err, "address"))
	}
	out := Holder{Address: *addr}
	err = a.node.View(func(p *pool.Pool) (err error) {
		if out.Shares, err = p.SharesOf(*addr); err != nil {
			return
		}
		out.Balance, err = p.Ledger().ValueOfShares(out.Shares)
		return
	})
	if err != nil {
		return err
	}
	return respond(w, &out)
}

func (a *poolAPI) handleGetCommittee(w http.ResponseWriter, _ *http.Request) error {
	var out Committee
	err := a.node.View(func(p *pool.Pool) (err error) {
		c := p.Committee()
		if out.Members, err = c.Members(); err != nil {
			return
		}
		if out.Quorum, err = c.Quorum(); err != nil {
			return
		}
		if out.ExpectedEpoch, err = c.ExpectedEpoch(); err != nil {
			return
		}
		variants, err := c.Variants()
		if err != nil {
			return err
		}
		out.Variants = make([]Variant, 0, len(variants))
		for _, v := range variants {
			out.Variants = append(out.Variants, Variant{v.Hash, v.Count})
		}
		hash, epoch, ok, err := c.ConsensusReport()
		if err != nil {
			return err
		}
		if ok {
			out.Consensus = &Consensus{hash, epoch}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return respond(w, &out)
}
