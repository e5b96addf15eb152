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

import "errors"

var (
	// ErrNoTransport is returned when a Sender is created without a transport
	ErrNoTransport = errors.New("no transport provided")

	// ErrNoCandidates is returned when a fallback session is requested with
	// an empty candidate list
	ErrNoCandidates = errors.New("empty candidate list")

	// ErrRequestTimeout is returned when a single-target request does not
	// complete within its deadline
	ErrRequestTimeout = errors.New("request timed out")

	// ErrSessionExhausted is returned by Next once a result has been
	// delivered for every candidate
	ErrSessionExhausted = errors.New("fallback session exhausted")

	// ErrSessionStopped is returned by Next after the session has been
	// stopped
	ErrSessionStopped = errors.New("fallback session stopped")
)
