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


package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/affinity/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// The embedder client is built once, on the first Embedder() call, and
// reused afterwards. Construction errors surface on the first embedding
// call rather than at provider creation.
type Provider struct {
	config *ai.Config
	logger *slog.Logger

	once     sync.Once
	embedder *Embedder
	initErr  error
}

// NewProvider creates a new embedding provider over OpenAI-compatible
// services. The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config: config,
		logger: slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service, constructing the underlying
// client on first call.
func (p *Provider) Embedder() ai.Embedder {
	p.once.Do(func() {
		p.embedder, p.initErr = newEmbedder(p.config)
		if p.initErr != nil {
			p.logger.Error("failed to initialize embedder", "err", p.initErr)
		}
	})
	if p.initErr != nil {
		return &failedEmbedder{err: p.initErr}
	}
	return p.embedder
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

// failedEmbedder surfaces a deferred construction error on every call.
type failedEmbedder struct {
	err error
}

func (f *failedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return nil, f.err
}

func (f *failedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, f.err
}
