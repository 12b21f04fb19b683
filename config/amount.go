// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var units = map[string]*uint256.Int{
	"wei":   uint256.NewInt(1),
	"gwei":  uint256.NewInt(1e9),
	"ether": uint256.NewInt(1e18),
}

// Amount is a monetary value written as a decimal string with an optional
// unit suffix, e.g. "1000", "32 ether" or "5gwei".
type Amount struct {
	v uint256.Int
}

// NewAmount wraps v.
func NewAmount(v *uint256.Int) *Amount {
	a := &Amount{}
	a.v.Set(v)
	return a
}

// Int returns a copy of the value.
func (a *Amount) Int() *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(&a.v)
}

func (a *Amount) String() string {
	return a.v.Dec()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	unit := units["wei"]
	for name, u := range units {
		if strings.HasSuffix(s, name) && (name != "wei" || !strings.HasSuffix(s, "gwei")) {
			s, unit = strings.TrimSpace(strings.TrimSuffix(s, name)), u
			break
		}
	}
	var v uint256.Int
	if err := v.SetFromDecimal(s); err != nil {
		return errors.Wrapf(err, "invalid amount %q", string(text))
	}
	if _, overflow := v.MulOverflow(&v, unit); overflow {
		return errors.Errorf("amount %q overflows", string(text))
	}
	a.v = v
	return nil
}
