// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sparklog

import "errors"

// Error taxonomy per the error handling design: UnsupportedFormat and
// TooLarge reject at the ingestion boundary; DecodeError (see decoder.go)
// and ParseAborted mark a LogFile failed; PersistenceError is the
// caller's own concern and is not modeled here.
var (
	ErrUnsupportedFormat = errors.New("sparklog: unsupported file extension")
	ErrTooLarge          = errors.New("sparklog: file exceeds maximum upload size")
	ErrParseAborted      = errors.New("sparklog: parse aborted by cancellation")
)
