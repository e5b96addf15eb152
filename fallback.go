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
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/blinklabs-io/dagnet/peer"
	"github.com/blinklabs-io/dagnet/protocol"
)

// Result is the outcome of one candidate's attempt. Exactly one of Reply
// and Err is set
type Result struct {
	// Position is the candidate's index in the original candidate list
	Position int
	// Peer is the candidate the attempt was sent to
	Peer peer.ID
	// Reply is the peer's validated response message
	Reply protocol.Message
	// Err is the attempt's failure reason
	Err error
}

// attemptResult is posted by each attempt goroutine to the session's run
// loop when its RPC resolves
type attemptResult struct {
	idx    int
	result Result
}

// FallbackSession dispatches one message to an ordered list of candidate
// peers. The first candidate's attempt is launched at creation, and while
// unlaunched candidates remain, the next candidate is attempted each time
// the escalation cadence elapses with unresolved attempts outstanding.
// Results are delivered via Next strictly in candidate order.
//
// All mutable session state (the per-candidate result slots, the launch
// index, and the delivery cursor) is owned by a single run loop goroutine.
// Attempts post their resolutions to the run loop over a channel and never
// share state with each other.
type FallbackSession struct {
	sender     *Sender
	clock      clock.Clock
	logger     *slog.Logger
	candidates []peer.ID
	message    protocol.Message
	cadence    time.Duration

	ctx         context.Context
	cancel      context.CancelFunc
	resolveChan chan attemptResult
	pullChan    chan struct{}
	deliverChan chan Result
	doneChan    chan struct{}
	onceStop    sync.Once

	// consumer-side state, guarded by nextMutex
	nextMutex sync.Mutex
	delivered int
}

func newFallbackSession(
	ctx context.Context,
	sender *Sender,
	candidates []peer.ID,
	msg protocol.Message,
	cadence time.Duration,
) *FallbackSession {
	// Copy the candidate list so sessions built from the same slice share
	// no mutable state
	tmpCandidates := make([]peer.ID, len(candidates))
	copy(tmpCandidates, candidates)
	sessionCtx, sessionCancel := context.WithCancel(ctx)
	s := &FallbackSession{
		sender:     sender,
		clock:      sender.clock,
		logger:     sender.logger,
		candidates: tmpCandidates,
		message:    msg,
		cadence:    cadence,
		ctx:        sessionCtx,
		cancel:     sessionCancel,
		// Buffered per candidate so attempt goroutines never block posting
		// their resolution, even after the session is torn down
		resolveChan: make(chan attemptResult, len(candidates)),
		pullChan:    make(chan struct{}),
		deliverChan: make(chan Result, 1),
		doneChan:    make(chan struct{}),
	}
	// Launch the first candidate's attempt before returning
	go s.attempt(0)
	go s.run()
	return s
}

// Next returns the next candidate's result, in candidate order. It blocks
// until the attempt at the current position resolves, escalating further
// candidates in the background as the cadence elapses. After a result has
// been delivered for every candidate, Next returns ErrSessionExhausted
func (s *FallbackSession) Next(ctx context.Context) (Result, error) {
	s.nextMutex.Lock()
	defer s.nextMutex.Unlock()
	if s.delivered >= len(s.candidates) {
		return Result{}, ErrSessionExhausted
	}
	// Pick up any result left over from an abandoned pull. It's the next
	// result in candidate order, so it's what this call should return
	select {
	case result := <-s.deliverChan:
		s.delivered++
		return result, nil
	default:
	}
	// Signal the run loop that a pull is waiting
	select {
	case s.pullChan <- struct{}{}:
	case <-s.doneChan:
		return s.drainOrStopped()
	case <-s.ctx.Done():
		return s.drainOrStopped()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	// Wait for the delivery
	select {
	case result := <-s.deliverChan:
		s.delivered++
		return result, nil
	case <-s.doneChan:
		return s.drainOrStopped()
	case <-s.ctx.Done():
		return s.drainOrStopped()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// drainOrStopped returns any result the run loop managed to deliver before
// the session wound down, since a resolved result must not be lost to a
// teardown race. Callers hold nextMutex
func (s *FallbackSession) drainOrStopped() (Result, error) {
	select {
	case result := <-s.deliverChan:
		s.delivered++
		return result, nil
	default:
		return Result{}, ErrSessionStopped
	}
}

// Stop tears down the session, canceling any attempts still in flight.
// Results already delivered are unaffected. It's safe to call Stop
// multiple times
func (s *FallbackSession) Stop() {
	s.onceStop.Do(func() {
		close(s.doneChan)
		s.cancel()
	})
}

// run owns all mutable session state and coordinates attempt launches,
// escalation, and in-order delivery
func (s *FallbackSession) run() {
	defer s.cancel()
	numCandidates := len(s.candidates)
	results := make([]*Result, numCandidates)
	// The first candidate's attempt is launched at creation
	launched := 1
	resolved := 0
	cursor := 0
	pullWaiting := false
	timer := s.clock.Timer(s.cadence)
	defer timer.Stop()
	timerArmed := true
	disarmTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerArmed = false
	}
	launchNext := func() {
		go s.attempt(launched)
		launched++
	}
	for {
		select {
		case res := <-s.resolveChan:
			resolved++
			tmpResult := res.result
			results[res.idx] = &tmpResult
			// Escalation pauses while no launched attempt remains
			// unresolved. It resumes when the next pull needs an
			// unlaunched candidate
			if resolved == launched && timerArmed {
				disarmTimer()
			}
		case <-timer.C:
			timerArmed = false
			// Escalate only while some launched attempt remains unresolved
			if launched < numCandidates && resolved < launched {
				launchNext()
			}
			if launched < numCandidates {
				timer.Reset(s.cadence)
				timerArmed = true
			}
		case <-s.pullChan:
			pullWaiting = true
		case <-s.ctx.Done():
			return
		}
		if pullWaiting {
			if results[cursor] != nil {
				// The delivery channel holds one result and pulls are
				// serialized, so this send never blocks
				s.deliverChan <- *results[cursor]
				cursor++
				pullWaiting = false
				if cursor == numCandidates {
					return
				}
			} else if cursor >= launched && launched < numCandidates {
				// The consumer is waiting on a candidate that was never
				// launched because escalation paused; launch it now
				if timerArmed {
					disarmTimer()
				}
				launchNext()
				timer.Reset(s.cadence)
				timerArmed = true
			}
		}
	}
}

// attempt performs the RPC for a single candidate and posts the outcome to
// the run loop. The shared message is cloned and stamped with a fresh
// request ID inside Sender.Request. No per-call deadline is used: the
// cadence governs escalation, not cancellation, so a slow peer that
// eventually replies still resolves successfully
func (s *FallbackSession) attempt(idx int) {
	target := s.candidates[idx]
	s.logger.Debug(
		"launching attempt",
		"component", "network",
		"peer", target.String(),
		"position", idx,
	)
	reply, err := s.sender.Request(s.ctx, target, s.message, 0)
	s.logger.Debug(
		"attempt resolved",
		"component", "network",
		"peer", target.String(),
		"position", idx,
		"failed", err != nil,
	)
	s.resolveChan <- attemptResult{
		idx: idx,
		result: Result{
			Position: idx,
			Peer:     target,
			Reply:    reply,
			Err:      err,
		},
	}
}
