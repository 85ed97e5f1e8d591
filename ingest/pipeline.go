package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/storage"
)

// Record is one registration as exported from the signup forms.
// Population decides which of the free-text fields are meaningful.
type Record struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Population   string `json:"population"`

	Department        string `json:"department"`
	ExpertiseAreas    string `json:"expertise_areas"`
	ExperienceSummary string `json:"experience_summary"`
	SectorsInterested string `json:"sectors_interested"`

	OrganizationFocus    string `json:"organization_focus"`
	ChallengeDescription string `json:"challenge_description"`
	ExpertiseSought      string `json:"expertise_sought"`
	LabToursInterested   string `json:"lab_tours_interested"`
}

// LoadStats summarizes one load operation.
type LoadStats struct {
	Loaded  int // profiles stored
	Skipped int // invalid or duplicate lines
}

// Pipeline loads registration exports into the profile repository.
type Pipeline struct {
	profiles storage.ProfileRepository
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent decoding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a registration load pipeline.
func NewPipeline(profiles storage.ProfileRepository, opts ...Option) (*Pipeline, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		profiles: profiles,
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// LoadFile loads a JSON Lines registration export from disk.
func (p *Pipeline) LoadFile(ctx context.Context, path string) (*LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.LoadReader(ctx, f)
}

// LoadReader loads a JSON Lines registration export from a reader.
// Lines decode and validate concurrently; profiles are stored one at a time
// in input order so duplicate handling stays deterministic.
func (p *Pipeline) LoadReader(ctx context.Context, r io.Reader) (*LoadStats, error) {
	type decoded struct {
		index   int
		profile *core.Profile
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		profiles []decoded
		skipped  int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	index := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineCopy := make([]byte, len(line))
		copy(lineCopy, line)
		lineIndex := index
		index++

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			profile, err := p.decode(lineCopy)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("skipping invalid registration line", "line", lineIndex+1, "err", err)
				skipped++
				return
			}
			profiles = append(profiles, decoded{index: lineIndex, profile: profile})
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Restore input order before storing
	for i := 1; i < len(profiles); i++ {
		for j := i; j > 0 && profiles[j-1].index > profiles[j].index; j-- {
			profiles[j-1], profiles[j] = profiles[j], profiles[j-1]
		}
	}

	stats := &LoadStats{Skipped: skipped}
	for _, d := range profiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, err := p.profiles.AddProfiles(ctx, d.profile); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				p.logger.Warn("skipping duplicate registration", "email", d.profile.Email)
				stats.Skipped++
				continue
			}
			return stats, err
		}
		stats.Loaded++
	}

	p.logger.Info("registration load finished", "loaded", stats.Loaded, "skipped", stats.Skipped)
	return stats, nil
}

// decode parses and validates one registration line.
func (p *Pipeline) decode(line []byte) (*core.Profile, error) {
	var record Record
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, err
	}

	population, err := core.ParsePopulationTag(record.Population)
	if err != nil {
		return nil, err
	}

	profile := &core.Profile{
		Name:         record.Name,
		Email:        core.NormalizeEmail(record.Email),
		Organization: record.Organization,
		Population:   population,

		Department:        record.Department,
		ExpertiseAreas:    record.ExpertiseAreas,
		ExperienceSummary: record.ExperienceSummary,
		SectorsInterested: record.SectorsInterested,

		OrganizationFocus:    record.OrganizationFocus,
		ChallengeDescription: record.ChallengeDescription,
		ExpertiseSought:      record.ExpertiseSought,
		LabToursInterested:   record.LabToursInterested,
	}

	if err := core.ValidateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
