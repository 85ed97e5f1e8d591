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


// Package batch runs the full cross-population match computation in
// resumable increments.
//
// The source population is processed in fixed-size batches addressed by a
// 1-based batch number. Each source profile commits independently: its match
// records and processed marker are written in one transaction, so a failure
// mid-batch loses only the profile being worked on, never completed ones.
// Already-processed sources are skipped, which makes rerunning any batch
// number idempotent and lets interrupted runs resume exactly where they
// stopped.
//
// Candidates are embedded once per run, in a single batch call, and reused
// for every source in the batch.
package batch
