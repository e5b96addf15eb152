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

package protocol

import "errors"

// Protocol violation errors are reported at the offending request's position
// only and never abort the session that issued it
var (
	ErrProtocolViolationUnexpectedMessage = errors.New(
		"protocol violation: unexpected message type",
	)
	ErrProtocolViolationNotAResponse = errors.New(
		"protocol violation: reply is not a response message",
	)
	ErrProtocolViolationRequestIdMismatch = errors.New(
		"protocol violation: request ID mismatch in response",
	)
)
