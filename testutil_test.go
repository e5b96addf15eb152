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

package dagnet

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/blinklabs-io/dagnet/peer"
	"github.com/blinklabs-io/dagnet/protocol"
	"github.com/blinklabs-io/dagnet/transport"
	"github.com/google/uuid"
)

// testPeerId returns a deterministic peer ID derived from the provided seed
func testPeerId(seed byte) peer.ID {
	key := make([]byte, ed25519.PublicKeySize)
	for i := range key {
		key[i] = seed
	}
	return peer.NewID(key)
}

// testPeerBehavior describes how the mock transport treats one peer
type testPeerBehavior struct {
	delay time.Duration
	fail  bool
}

// testTransport is a scripted mock transport. Each peer responds according
// to its configured behavior, and every call is recorded so tests can
// assert launch order and call counts
type testTransport struct {
	clock      clock.Clock
	mutex      sync.Mutex
	behaviors  map[peer.ID]testPeerBehavior
	calls      []peer.ID
	requestIds []uuid.UUID
}

func newTestTransport(
	clk clock.Clock,
	behaviors map[peer.ID]testPeerBehavior,
) *testTransport {
	return &testTransport{
		clock:     clk,
		behaviors: behaviors,
	}
}

func (t *testTransport) Call(
	ctx context.Context,
	to peer.ID,
	req protocol.Message,
) (protocol.Message, error) {
	t.mutex.Lock()
	t.calls = append(t.calls, to)
	t.requestIds = append(t.requestIds, req.RequestId())
	behavior, ok := t.behaviors[to]
	t.mutex.Unlock()
	if !ok {
		return nil, transport.ErrPeerUnknown
	}
	if behavior.delay > 0 {
		timer := t.clock.Timer(behavior.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if behavior.fail {
		return nil, transport.ErrConnectionClosed
	}
	// Round-trip the request through the codec like a remote peer would
	reqCbor, err := protocol.EncodeMessage(req)
	if err != nil {
		return nil, err
	}
	decoded, err := protocol.DecodeMessage(reqCbor)
	if err != nil {
		return nil, err
	}
	return testRespondTo(decoded)
}

func (t *testTransport) callsTo() []peer.ID {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	ret := make([]peer.ID, len(t.calls))
	copy(ret, t.calls)
	return ret
}

func (t *testTransport) seenRequestIds() []uuid.UUID {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	ret := make([]uuid.UUID, len(t.requestIds))
	copy(ret, t.requestIds)
	return ret
}

// testRespondTo builds the matching response for a decoded request
func testRespondTo(req protocol.Message) (protocol.Message, error) {
	var resp protocol.Message
	switch req.(type) {
	case *protocol.MsgVertexRequest:
		resp = protocol.NewMsgVertexResponse(nil)
	case *protocol.MsgCertificateRequest:
		resp = protocol.NewMsgCertificateResponse(nil)
	case *protocol.MsgBatchFetchRequest:
		resp = protocol.NewMsgBatchFetchResponse(nil)
	default:
		return nil, fmt.Errorf("unexpected request type %d", req.Type())
	}
	resp.SetRequestId(req.RequestId())
	return resp, nil
}

// transportFunc adapts a function to the Transport interface
type transportFunc func(
	ctx context.Context,
	to peer.ID,
	req protocol.Message,
) (protocol.Message, error)

func (f transportFunc) Call(
	ctx context.Context,
	to peer.ID,
	req protocol.Message,
) (protocol.Message, error) {
	return f(ctx, to, req)
}
