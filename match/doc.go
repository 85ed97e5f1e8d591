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


// Package match computes semantic pairings between the seeker and provider
// populations.
//
// A profile's free-text attributes are concatenated into a composite text,
// lightly normalized, and embedded. Candidates from the opposite population
// are ranked by cosine similarity against the source's vector; candidates at
// or below the similarity floor are dropped, and the survivors get dense
// ranks starting at 1. Shared keyword phrases are extracted afterwards as
// human-readable evidence only; they never influence ordering.
//
// The Engine works against a CandidateSet, a population's profiles embedded
// in a single batch call, so that ranking many sources against the same
// candidates costs one embedding round-trip per source.
package match
