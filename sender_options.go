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
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/blinklabs-io/dagnet/transport"
)

// SenderOptionFunc is a type that represents functions that modify the Sender config
type SenderOptionFunc func(*Sender)

// WithTransport specifies the transport used to reach peers. This option is
// required
func WithTransport(t transport.Transport) SenderOptionFunc {
	return func(s *Sender) {
		s.transport = t
	}
}

// WithClock specifies the clock used for deadlines and escalation timers.
// The default is the system clock; a mock clock can be provided for
// deterministic tests
func WithClock(c clock.Clock) SenderOptionFunc {
	return func(s *Sender) {
		s.clock = c
	}
}

// WithLogger specifies the slog.Logger to use. If none is provided, logs
// are discarded
func WithLogger(logger *slog.Logger) SenderOptionFunc {
	return func(s *Sender) {
		s.logger = logger
	}
}

// WithPeerStatsCacheSize specifies the number of peers to retain RPC
// outcome stats for
func WithPeerStatsCacheSize(size int) SenderOptionFunc {
	return func(s *Sender) {
		s.peerStatsCacheSize = size
	}
}
