package publisher

import (
	"context"
	"errors"

	"github.com/msfttoler/sports/pkg/contracts"
	"github.com/msfttoler/sports/pkg/models"
)

// Fanout publishes to every publisher in order. Errors are joined; one
// failing publisher does not stop the others.
type Fanout []contracts.OpportunityPublisher

// PublishArbitrage implements contracts.OpportunityPublisher
func (f Fanout) PublishArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishArbitrage(ctx, opps); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishValueBets implements contracts.OpportunityPublisher
func (f Fanout) PublishValueBets(ctx context.Context, bets []models.ValueBet) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishValueBets(ctx, bets); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
