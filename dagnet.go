// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dagnet implements the peer-to-peer message exchange layer used
// by a DAG-based BFT consensus engine.
//
// The package centers on two primitives: a single-target RPC with an
// explicit deadline, and a fallback session that dispatches the same
// request to an ordered list of candidate peers. The session issues the
// first request immediately and escalates to further candidates on a
// fixed cadence while earlier attempts remain unresolved, delivering
// results to the consumer strictly in candidate order regardless of
// completion order.
//
// This package is the main entry point into this library. The other
// packages can be used outside of this one, but it's not a primary design
// goal.
package dagnet

import (
	"context"
	"time"

	"github.com/blinklabs-io/dagnet/peer"
	"github.com/blinklabs-io/dagnet/protocol"
)

// NetworkSender is the interface used by the consensus logic to exchange
// messages with other validators
type NetworkSender interface {
	// Request performs a single-target RPC against the named peer, waiting
	// up to the provided timeout for the reply. There is no internal retry
	Request(
		ctx context.Context,
		to peer.ID,
		msg protocol.Message,
		timeout time.Duration,
	) (protocol.Message, error)
	// RequestWithFallbacks dispatches the message to an ordered list of
	// candidate peers, escalating on the provided cadence. It fails if the
	// candidate list is empty and otherwise returns without blocking, with
	// the first candidate's attempt already launched
	RequestWithFallbacks(
		ctx context.Context,
		candidates []peer.ID,
		msg protocol.Message,
		cadence time.Duration,
	) (*FallbackSession, error)
}
