// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

// MaxTopics is the number of topics an event may carry, topic 0 included.
const MaxTopics = 4

// Event is a record emitted by a component for downstream observers.
// Topics[0] identifies the event kind, the remaining topics are indexed arguments.
type Event struct {
	Address Address
	Topics  []Bytes32
	Data    []byte
}

// EventTopic derives the kind topic of an event from its signature.
func EventTopic(signature string) Bytes32 {
	return Keccak256([]byte(signature))
}
