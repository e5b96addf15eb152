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
	"testing"
	"time"

	"github.com/blinklabs-io/dagnet/peer"
	"github.com/blinklabs-io/dagnet/protocol"
	"github.com/blinklabs-io/dagnet/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewSenderRequiresTransport(t *testing.T) {
	sender, err := NewSender()
	assert.ErrorIs(t, err, ErrNoTransport)
	assert.Nil(t, sender)
}

func TestRequest(t *testing.T) {
	defer goleak.VerifyNone(t)
	target := testPeerId(1)
	sender, mockTransport := newTestSender(
		t,
		map[peer.ID]testPeerBehavior{
			target: {},
		},
	)
	msg := protocol.NewMsgVertexRequest([][]byte{{0xab, 0xcd}})
	resp, err := sender.Request(
		context.Background(),
		target,
		msg,
		time.Second,
	)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, uint8(protocol.MessageTypeVertexResponse), resp.Type())
	// The message sent on the wire was a clone with its own request ID
	assert.Equal(t, uuid.Nil, msg.RequestId())
	requestIds := mockTransport.seenRequestIds()
	require.Len(t, requestIds, 1)
	assert.NotEqual(t, uuid.Nil, requestIds[0])
	assert.Equal(t, requestIds[0], resp.RequestId())
	// The outcome was recorded
	stats, ok := sender.PeerStatsFor(target)
	require.True(t, ok)
	assert.Equal(t, uint64(1), stats.Requests)
	assert.Equal(t, uint64(0), stats.Failures)
}

func TestRequestTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	target := testPeerId(1)
	sender, _ := newTestSender(
		t,
		map[peer.ID]testPeerBehavior{
			target: {delay: 10 * time.Second},
		},
	)
	_, err := sender.Request(
		context.Background(),
		target,
		protocol.NewMsgVertexRequest(nil),
		20*time.Millisecond,
	)
	assert.ErrorIs(t, err, ErrRequestTimeout)
	stats, ok := sender.PeerStatsFor(target)
	require.True(t, ok)
	assert.Equal(t, uint64(1), stats.Failures)
}

func TestRequestTransportError(t *testing.T) {
	defer goleak.VerifyNone(t)
	target := testPeerId(1)
	sender, _ := newTestSender(
		t,
		map[peer.ID]testPeerBehavior{
			target: {fail: true},
		},
	)
	_, err := sender.Request(
		context.Background(),
		target,
		protocol.NewMsgVertexRequest(nil),
		time.Second,
	)
	assert.ErrorIs(t, err, transport.ErrConnectionClosed)
}

func TestRequestUnexpectedResponseType(t *testing.T) {
	defer goleak.VerifyNone(t)
	target := testPeerId(1)
	// Transport whose peer replies with the wrong message kind
	badTransport := transportFunc(func(
		_ context.Context,
		_ peer.ID,
		req protocol.Message,
	) (protocol.Message, error) {
		resp := protocol.NewMsgCertificateResponse(nil)
		resp.SetRequestId(req.RequestId())
		return resp, nil
	})
	sender, err := NewSender(
		WithTransport(badTransport),
	)
	require.NoError(t, err)
	_, err = sender.Request(
		context.Background(),
		target,
		protocol.NewMsgVertexRequest(nil),
		time.Second,
	)
	assert.ErrorIs(t, err, protocol.ErrProtocolViolationUnexpectedMessage)
}

func TestRequestIdMismatch(t *testing.T) {
	defer goleak.VerifyNone(t)
	target := testPeerId(1)
	// Transport whose peer replies with the right kind but a stale
	// request ID
	badTransport := transportFunc(func(
		_ context.Context,
		_ peer.ID,
		_ protocol.Message,
	) (protocol.Message, error) {
		resp := protocol.NewMsgVertexResponse(nil)
		resp.SetRequestId(uuid.New())
		return resp, nil
	})
	sender, err := NewSender(
		WithTransport(badTransport),
	)
	require.NoError(t, err)
	_, err = sender.Request(
		context.Background(),
		target,
		protocol.NewMsgVertexRequest(nil),
		time.Second,
	)
	assert.ErrorIs(t, err, protocol.ErrProtocolViolationRequestIdMismatch)
}

func TestRequestContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	target := testPeerId(1)
	sender, _ := newTestSender(
		t,
		map[peer.ID]testPeerBehavior{
			target: {delay: 10 * time.Second},
		},
	)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := sender.Request(
		ctx,
		target,
		protocol.NewMsgVertexRequest(nil),
		0,
	)
	assert.ErrorIs(t, err, context.Canceled)
}
