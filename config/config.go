// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the yaml configuration of a node.
package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/ratelimit"
	"github.com/lsdcore/lsd/lsd"
)

type Config struct {
	DataDir    string            `yaml:"dataDir"`
	CacheSize  int               `yaml:"cacheSize"` // committed slots kept in memory
	LogLevel   string            `yaml:"logLevel"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Admin      lsd.Address       `yaml:"admin"`
	Pool       PoolConfig        `yaml:"pool"`
	StakeLimit *StakeLimitConfig `yaml:"stakeLimit,omitempty"`
	Committee  CommitteeConfig   `yaml:"committee"`
	Fees       FeesConfig        `yaml:"fees"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type PoolConfig struct {
	MaxPositiveRebasePPB    uint64 `yaml:"maxPositiveRebasePPB"`
	AnnualBalanceIncreaseBP uint64 `yaml:"annualBalanceIncreaseBP"`
}

type StakeLimitConfig struct {
	MaxLimit       *Amount `yaml:"maxLimit"`
	GrowthPerBlock *Amount `yaml:"growthPerBlock"`
}

type CommitteeConfig struct {
	Quorum  uint64        `yaml:"quorum"`
	Members []lsd.Address `yaml:"members"`
}

type FeeRecipientConfig struct {
	Address  lsd.Address `yaml:"address"`
	WeightBP uint64      `yaml:"weightBP"`
}

type FeesConfig struct {
	TotalBP    uint64               `yaml:"totalBP"`
	Treasury   lsd.Address          `yaml:"treasury"`
	Recipients []FeeRecipientConfig `yaml:"recipients"`
}

// Default returns a configuration with every optional field set.
// Admin, committee members and treasury must still be provided.
func Default() *Config {
	return &Config{
		DataDir:   "data",
		CacheSize: 65536,
		LogLevel:  "info",
		Metrics: MetricsConfig{
			Addr: "localhost:2112",
		},
		Pool: PoolConfig{
			MaxPositiveRebasePPB:    lsd.RebasePrecision / 1000, // 0.1% per report
			AnnualBalanceIncreaseBP: 1000,
		},
		Committee: CommitteeConfig{
			Quorum: 1,
		},
		Fees: FeesConfig{
			TotalBP: 1000,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes data over Default and validates the result. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("dataDir: required")
	}
	if c.CacheSize < 0 {
		return errors.New("cacheSize: negative")
	}
	if c.Admin.IsZero() {
		return errors.New("admin: required")
	}
	if c.Pool.MaxPositiveRebasePPB == 0 {
		return errors.New("pool.maxPositiveRebasePPB: must be positive")
	}
	if sl := c.StakeLimit; sl != nil {
		if err := ratelimit.ValidateLimit(sl.MaxLimit.Int(), sl.GrowthPerBlock.Int()); err != nil {
			return errors.WithMessage(err, "stakeLimit")
		}
	}

	q := c.Committee.Quorum
	if q == 0 {
		return errors.New("committee.quorum: must be positive")
	}
	if len(c.Committee.Members) > lsd.MaxMembers {
		return errors.Errorf("committee.members: more than %d", lsd.MaxMembers)
	}
	seen := make(map[lsd.Address]bool, len(c.Committee.Members))
	for _, m := range c.Committee.Members {
		if m.IsZero() {
			return errors.New("committee.members: zero address")
		}
		if seen[m] {
			return errors.Errorf("committee.members: duplicated %v", m)
		}
		seen[m] = true
	}

	if err := accounting.ValidateFees(c.Fees.TotalBP, c.Fees.Treasury, c.FeeRecipients()); err != nil {
		return errors.WithMessage(err, "fees")
	}
	return nil
}

// FeeRecipients converts the configured recipients.
func (c *Config) FeeRecipients() []accounting.FeeRecipient {
	recipients := make([]accounting.FeeRecipient, 0, len(c.Fees.Recipients))
	for _, r := range c.Fees.Recipients {
		recipients = append(recipients, accounting.FeeRecipient{Address: r.Address, WeightBP: r.WeightBP})
	}
	return recipients
}

// Limits returns the reconciliation limits.
func (c *Config) Limits() accounting.Limits {
	return accounting.Limits{
		MaxPositiveRebase: c.Pool.MaxPositiveRebasePPB,
		AnnualIncreaseBP:  c.Pool.AnnualBalanceIncreaseBP,
	}
}
