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

// Package transport defines the point-to-point channel used to exchange a
// single request/response pair with a named peer. Implementations exist
// per underlying transport and are hidden behind the narrow Transport
// interface.
package transport

import (
	"context"
	"errors"

	"github.com/blinklabs-io/dagnet/peer"
	"github.com/blinklabs-io/dagnet/protocol"
)

// Common errors returned by Transport implementations
var (
	ErrPeerUnknown      = errors.New("transport: unknown peer")
	ErrConnectionClosed = errors.New("transport: connection closed")
)

// Transport performs one request/response exchange with the named peer.
// Call blocks until the peer replies, the exchange fails, or the provided
// context is canceled. Implementations must honor context cancellation so
// that abandoned exchanges do not leak connections.
type Transport interface {
	Call(
		ctx context.Context,
		to peer.ID,
		req protocol.Message,
	) (protocol.Message, error)
}
