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
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/blinklabs-io/dagnet/peer"
	"github.com/blinklabs-io/dagnet/protocol"
	"github.com/blinklabs-io/dagnet/transport"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultPeerStatsCacheSize = 256

// PeerStats holds the recorded RPC outcomes for a single peer
type PeerStats struct {
	Requests    uint64
	Failures    uint64
	LastLatency time.Duration
}

// The Sender type implements NetworkSender on top of a Transport
type Sender struct {
	transport          transport.Transport
	clock              clock.Clock
	logger             *slog.Logger
	peerStatsCacheSize int
	peerStatsMutex     sync.Mutex
	peerStats          *lru.Cache[peer.ID, PeerStats]
}

// NewSender returns a new Sender object with the specified options. A
// transport must be provided via WithTransport
func NewSender(options ...SenderOptionFunc) (*Sender, error) {
	s := &Sender{
		peerStatsCacheSize: defaultPeerStatsCacheSize,
	}
	// Apply provided options functions
	for _, option := range options {
		option(s)
	}
	if s.transport == nil {
		return nil, ErrNoTransport
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	peerStats, err := lru.New[peer.ID, PeerStats](s.peerStatsCacheSize)
	if err != nil {
		return nil, err
	}
	s.peerStats = peerStats
	return s, nil
}

// Logger returns the logger for the sender
func (s *Sender) Logger() *slog.Logger {
	return s.logger
}

// Request performs a single-target RPC against the named peer. The message
// is cloned and stamped with a fresh request ID before sending, and the
// reply must echo that ID and carry the expected response message type. A
// timeout of zero means no deadline, in which case the call blocks until
// the transport resolves or the context is canceled
func (s *Sender) Request(
	ctx context.Context,
	to peer.ID,
	msg protocol.Message,
	timeout time.Duration,
) (protocol.Message, error) {
	start := s.clock.Now()
	resp, err := s.doRequest(ctx, to, msg, timeout)
	s.recordPeerStats(to, s.clock.Since(start), err)
	return resp, err
}

func (s *Sender) doRequest(
	ctx context.Context,
	to peer.ID,
	msg protocol.Message,
	timeout time.Duration,
) (protocol.Message, error) {
	reqMsg, err := protocol.CloneMessage(msg)
	if err != nil {
		return nil, err
	}
	reqMsg.SetRequestId(uuid.New())
	s.logger.Debug(
		"sending request",
		"component", "network",
		"peer", to.String(),
		"message_type", reqMsg.Type(),
		"request_id", reqMsg.RequestId().String(),
	)
	callCtx, callCancel := context.WithCancel(ctx)
	defer callCancel()
	type callResult struct {
		msg protocol.Message
		err error
	}
	// The result channel is buffered so the transport goroutine can always
	// post its result and exit, even after a timeout
	resultChan := make(chan callResult, 1)
	go func() {
		resp, err := s.transport.Call(callCtx, to, reqMsg)
		resultChan <- callResult{msg: resp, err: err}
	}()
	var timeoutChan <-chan time.Time
	if timeout > 0 {
		timer := s.clock.Timer(timeout)
		defer timer.Stop()
		timeoutChan = timer.C
	}
	select {
	case result := <-resultChan:
		if result.err != nil {
			return nil, result.err
		}
		if err := protocol.ValidateResponse(reqMsg, result.msg); err != nil {
			return nil, err
		}
		return result.msg, nil
	case <-timeoutChan:
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RequestWithFallbacks dispatches the message to an ordered list of
// candidate peers. The first candidate's attempt is launched before this
// function returns, and further candidates are attempted on the provided
// cadence while earlier attempts remain unresolved. Canceling the provided
// context tears down the session
func (s *Sender) RequestWithFallbacks(
	ctx context.Context,
	candidates []peer.ID,
	msg protocol.Message,
	cadence time.Duration,
) (*FallbackSession, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return newFallbackSession(ctx, s, candidates, msg, cadence), nil
}

// PeerStatsFor returns the recorded RPC outcomes for the provided peer
func (s *Sender) PeerStatsFor(id peer.ID) (PeerStats, bool) {
	s.peerStatsMutex.Lock()
	defer s.peerStatsMutex.Unlock()
	return s.peerStats.Get(id)
}

func (s *Sender) recordPeerStats(
	id peer.ID,
	latency time.Duration,
	err error,
) {
	s.peerStatsMutex.Lock()
	defer s.peerStatsMutex.Unlock()
	stats, _ := s.peerStats.Get(id)
	stats.Requests++
	if err != nil {
		stats.Failures++
	}
	stats.LastLatency = latency
	s.peerStats.Add(id, stats)
}

// interface assertion
var _ NetworkSender = (*Sender)(nil)
