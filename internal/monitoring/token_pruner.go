package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/portal-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TokenPruner periodically deletes revocations of tokens that have expired.
type TokenPruner struct {
	tokenSvc services.TokenServiceProvider
	cron     *cron.Cron
	now      func() time.Time
}

// NewTokenPruner creates a pruner that runs on the given cron spec
// (standard five-field syntax or descriptors such as "@hourly").
func NewTokenPruner(tokenSvc services.TokenServiceProvider, spec string) (*TokenPruner, error) {
	p := &TokenPruner{
		tokenSvc: tokenSvc,
		cron:     cron.New(),
		now:      time.Now,
	}
	if _, err := p.cron.AddFunc(spec, p.prune); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return p, nil
}

// Run starts the cron loop in its own goroutine.
func (p *TokenPruner) Run() {
	log.Info().Msg("Starting revoked token pruner...")
	p.cron.Start()
}

// Stop halts the pruner and waits for a running prune to finish.
func (p *TokenPruner) Stop() {
	<-p.cron.Stop().Done()
	log.Info().Msg("Stopped revoked token pruner.")
}

func (p *TokenPruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := p.tokenSvc.PruneExpired(ctx, p.now())
	if err != nil {
		log.Error().Err(err).Msg("TokenPruner: Failed to prune revoked tokens")
		return
	}
	if n > 0 {
		log.Info().Int64("pruned", n).Msg("TokenPruner: Removed expired revocations")
	}
}
