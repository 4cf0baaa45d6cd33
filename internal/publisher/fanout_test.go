package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msfttoler/sports/pkg/models"
)

type countingPublisher struct {
	arbs, bets int
	err        error
}

func (c *countingPublisher) PublishArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error {
	c.arbs += len(opps)
	return c.err
}

func (c *countingPublisher) PublishValueBets(ctx context.Context, bets []models.ValueBet) error {
	c.bets += len(bets)
	return c.err
}

func TestFanoutContinuesPastErrors(t *testing.T) {
	failing := &countingPublisher{err: errors.New("redis down")}
	ok := &countingPublisher{}
	f := Fanout{failing, ok}

	err := f.PublishArbitrage(context.Background(), []models.ArbitrageOpportunity{{EventID: "e1"}})
	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, 1, failing.arbs)
	assert.Equal(t, 1, ok.arbs)

	err = f.PublishValueBets(context.Background(), []models.ValueBet{{EventID: "e1"}, {EventID: "e2"}})
	assert.Error(t, err)
	assert.Equal(t, 2, ok.bets)
}

func TestEmptyFanout(t *testing.T) {
	assert.NoError(t, Fanout{}.PublishArbitrage(context.Background(), nil))
	assert.NoError(t, Fanout(nil).PublishValueBets(context.Background(), nil))
}
