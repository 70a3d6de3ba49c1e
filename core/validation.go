// Copyright 2025 Poiesic Systems
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

package core

import (
	"fmt"
	"strings"
)

// ValidateRequest checks that a run request is complete.
//
// Validation rules:
//   - InputPath, Model, Format and OutputDir must be set
//   - BatchSize must be positive
//
// All missing parameters are reported in a single error. OutputName defaults
// elsewhere and is NOT validated, nor is the format token itself (see ParseFormat).
func ValidateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	var missing []string
	if strings.TrimSpace(req.InputPath) == "" {
		missing = append(missing, "input file")
	}
	if strings.TrimSpace(req.Model) == "" {
		missing = append(missing, "model")
	}
	if strings.TrimSpace(req.Format) == "" {
		missing = append(missing, "output format")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		missing = append(missing, "output location")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}

	if req.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidRequest, req.BatchSize)
	}
	return nil
}
