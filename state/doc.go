// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state is the slot storage every component persists into.
//
// Reads fall through the in-flight journal to an LRU cache of committed
// values and finally to the kv store. Writes only land in the journal, so an
// entry point that fails can be rolled back with RevertTo and nothing reaches
// the store until Stage(...).Commit() writes the whole journal in one batch.
package state
