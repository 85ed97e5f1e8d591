// Copyright 2026 Poiesic Systems
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
	"time"
)

// NormalizeEmail canonicalizes a contact address for storage and lookup.
// Addresses are compared case-insensitively, so this is applied both when
// a profile is saved and before any lookup by address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateProfile validates a Profile according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Email must not be empty and must already be normalized
//   - Population must be valid
//
// NOT validated:
//   - Free-text attributes (all may be empty; such a profile is
//     unmatchable but still valid)
//   - ID (0 is valid before content-based assignment)
func ValidateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}

	if profile.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyName)
	}

	if profile.Email == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyEmail)
	}
	if profile.Email != NormalizeEmail(profile.Email) {
		return fmt.Errorf("%w: email %q is not normalized", ErrInvalidProfile, profile.Email)
	}

	if err := ValidatePopulationTag(profile.Population); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	return nil
}

// ValidateMatchRecord validates a MatchRecord according to domain rules.
//
// Validation rules:
//   - SourceId and CandidateId must be set and distinct
//   - Score must be in [0,1]
//   - Rank must be >= 1
func ValidateMatchRecord(record *MatchRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMatchRecord)
	}

	if record.SourceId == 0 || record.CandidateId == 0 {
		return fmt.Errorf("%w: source and candidate ids are required", ErrInvalidMatchRecord)
	}
	if record.SourceId == record.CandidateId {
		return fmt.Errorf("%w: source and candidate must differ", ErrInvalidMatchRecord)
	}

	if record.Score < 0 || record.Score > 1 {
		return fmt.Errorf("%w: %w (got %v)", ErrInvalidMatchRecord, ErrInvalidScore, record.Score)
	}

	if record.Rank < 1 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidMatchRecord, ErrInvalidRank, record.Rank)
	}

	return nil
}

// ValidatePopulationTag validates that a PopulationTag has a valid value.
func ValidatePopulationTag(tag PopulationTag) error {
	if tag != PopulationSeeker && tag != PopulationProvider {
		return fmt.Errorf("%w: value %d", ErrInvalidPopulationTag, tag)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
