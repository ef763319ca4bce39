/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package translator

import (
	"fmt"
)

// ErrPrecondition reports input that cannot be processed. It is raised before any model call.
type ErrPrecondition struct {
	Msg string
	Err error
}

// ErrCancelled represents errors when a run is cancelled between fragments.
type ErrCancelled struct {
	Msg string
	Err error
}

func (e *ErrPrecondition) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("precondition failed: %s", e.Msg)
	}
	return fmt.Sprintf("precondition failed: %s: %v", e.Msg, e.Err)
}

func (e *ErrPrecondition) Unwrap() error {
	return e.Err
}

func (e *ErrCancelled) Error() string {
	return fmt.Sprintf("operation cancelled: %s: %v", e.Msg, e.Err)
}

func (e *ErrCancelled) Unwrap() error {
	return e.Err
}
