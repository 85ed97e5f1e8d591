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


package badger

import "github.com/poiesic/affinity/storage"

// Repositories bundles the repositories opened over one backend.
type Repositories struct {
	Profiles   storage.ProfileRepository
	Matches    storage.MatchRepository
	ContactLog storage.ContactLogRepository

	backend *Backend
}

// NewRepositories opens a backend at path and creates all repositories over it.
func NewRepositories(path string) (*Repositories, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newRepositories(backend)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newRepositories(backend)
}

func newRepositories(backend *Backend) (*Repositories, error) {
	profiles, err := NewProfileRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	matches, err := NewMatchRepository(backend)
	if err != nil {
		profiles.Close()
		backend.Close()
		return nil, err
	}

	contactLog, err := NewContactLogRepository(backend)
	if err != nil {
		matches.Close()
		profiles.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Profiles:   profiles,
		Matches:    matches,
		ContactLog: contactLog,
		backend:    backend,
	}, nil
}

// Backend exposes the underlying backend, mainly for tests.
func (r *Repositories) Backend() *Backend {
	return r.backend
}

// Close releases the repositories and closes the backend.
func (r *Repositories) Close() error {
	r.Matches.Close()
	r.ContactLog.Close()
	r.Profiles.Close()
	return r.backend.Close()
}
