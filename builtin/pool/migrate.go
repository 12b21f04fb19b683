// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/reverts"
	"github.com/lsdcore/lsd/lsd"
)

// migration upgrades the pool storage by one schema version.
type migration func(p *Pool) error

// migrations[i] upgrades schema version i+1 to i+2.
var migrations []migration

// LatestSchemaVersion is the schema version the code expects.
func LatestSchemaVersion() uint64 {
	return uint64(len(migrations)) + 1
}

// Migrate upgrades the storage schema to the latest version and returns the
// version it started from.
func (p *Pool) Migrate(caller lsd.Address) (uint64, error) {
	var from uint64
	err := p.run("migrate", func() error {
		version, err := p.schemaVersion.Get()
		if err != nil {
			return err
		}
		if version == 0 {
			return reverts.ErrNotInitialized
		}
		latest := LatestSchemaVersion()
		if version > latest {
			return reverts.Errorf(reverts.ErrInvalidConfig, "schema version %d is newer than %d", version, latest)
		}
		from = version
		if version == latest {
			return nil
		}
		if err := p.roles.Authorize(caller, policy.RoleAdmin); err != nil {
			return err
		}
		for ; version < latest; version++ {
			if err := migrations[version-1](p); err != nil {
				return err
			}
			logger.Info("schema migrated", "from", version, "to", version+1)
		}
		if err := p.schemaVersion.Set(latest); err != nil {
			return err
		}
		p.emitMigrated(from, latest)
		return nil
	})
	return from, err
}
