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


// Package affinity pairs seeker and provider profiles by embedding
// similarity. This file is the assembly point: it opens storage, wires the
// embedding provider, and hands out the matching engine, batch controller,
// and registration loader.
package affinity

import (
	"log/slog"

	"github.com/poiesic/affinity/ai"
	"github.com/poiesic/affinity/ai/openai"
	"github.com/poiesic/affinity/batch"
	"github.com/poiesic/affinity/ingest"
	"github.com/poiesic/affinity/match"
	"github.com/poiesic/affinity/storage"
	"github.com/poiesic/affinity/storage/badger"
)

// Service owns the storage backend and embedding provider for one database.
type Service struct {
	repos    *badger.Repositories
	provider ai.Provider
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the embedding service configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// NewService opens the database at filePath and wires the embedding provider.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.NewRepositories(filePath)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		repos.Close()
		return nil, err
	}

	return &Service{
		repos:    repos,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the provider and closes the database.
func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing embedding provider", "err", err)
	}
	return s.repos.Close()
}

// Profiles returns the profile repository.
func (s *Service) Profiles() storage.ProfileRepository {
	return s.repos.Profiles
}

// Matches returns the match repository.
func (s *Service) Matches() storage.MatchRepository {
	return s.repos.Matches
}

// ContactLog returns the contact log repository.
func (s *Service) ContactLog() storage.ContactLogRepository {
	return s.repos.ContactLog
}

// NewEngine creates a matching engine over this service's storage and
// embedding provider.
func (s *Service) NewEngine(opts ...match.Option) (*match.Engine, error) {
	return match.NewEngine(s.repos.Profiles, s.provider, opts...)
}

// NewBatchController creates a batch controller over this service's storage.
func (s *Service) NewBatchController(config *batch.Config, opts ...match.Option) (*batch.Controller, error) {
	engine, err := s.NewEngine(opts...)
	if err != nil {
		return nil, err
	}
	return batch.NewController(s.repos.Profiles, s.repos.Matches, engine, config), nil
}

// NewIngestPipeline creates a registration load pipeline over this service's
// storage.
func (s *Service) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(s.repos.Profiles, opts...)
}
