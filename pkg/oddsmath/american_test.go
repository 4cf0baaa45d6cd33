package oddsmath_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/pkg/oddsmath"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name  string
		price int
		want  float64
	}{
		{"Even +100", 100, 0.5},
		{"Underdog +150", 150, 0.4},
		{"Underdog +300", 300, 0.25},
		{"Favorite -110", -110, 0.523810},
		{"Favorite -130", -130, 0.565217},
		{"Favorite -100", -100, 0.5},
		{"Heavy favorite -300", -300, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.ImpliedProbability(tt.price)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001, "ImpliedProbability(%d)", tt.price)
		})
	}
}

func TestDecimalOdds(t *testing.T) {
	tests := []struct {
		name  string
		price int
		want  float64
	}{
		{"Positive odds +100", 100, 2.0},
		{"Positive odds +150", 150, 2.5},
		{"Positive odds +200", 200, 3.0},
		{"Negative odds -110", -110, 1.909090909},
		{"Negative odds -150", -150, 1.666666667},
		{"Negative odds -200", -200, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.DecimalOdds(tt.price)
			require.NoError(t, err)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("DecimalOdds(%d) = %f, want %f", tt.price, got, tt.want)
			}
		})
	}
}

func TestDecimalIsInverseOfImplied(t *testing.T) {
	for _, price := range []int{-1000, -300, -150, -110, -100, 100, 105, 150, 250, 1200} {
		dec, err := oddsmath.DecimalOdds(price)
		require.NoError(t, err)
		prob, err := oddsmath.ImpliedProbability(price)
		require.NoError(t, err)

		assert.InDelta(t, 1/prob, dec, 1e-9, "price %d", price)
		assert.Greater(t, prob, 0.0)
		assert.Less(t, prob, 1.0)
	}
}

func TestInvalidOdds(t *testing.T) {
	for _, price := range []int{0, 1, 50, 99, -1, -50, -99} {
		_, err := oddsmath.ImpliedProbability(price)
		require.Error(t, err, "ImpliedProbability(%d)", price)
		assert.True(t, errors.Is(err, oddsmath.ErrInvalidOdds))

		var invalid *oddsmath.InvalidOddsError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, price, invalid.Price)

		_, err = oddsmath.DecimalOdds(price)
		assert.ErrorIs(t, err, oddsmath.ErrInvalidOdds)
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		name    string
		decimal float64
		want    int
		wantErr bool
	}{
		{"Even odds 2.0", 2.0, 100, false},
		{"Underdog 2.5", 2.5, 150, false},
		{"Favorite 1.5", 1.5, -200, false},
		{"Favorite 1.909", 1.909, -110, false},
		{"No payout 1.0", 1.0, 0, true},
		{"Below one", 0.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.DecimalToAmerican(tt.decimal)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbabilityToAmerican(t *testing.T) {
	tests := []struct {
		prob float64
		want int
	}{
		{0.5, 100},
		{0.6, -150},
		{0.4, 150},
		{0.75, -300},
	}

	for _, tt := range tests {
		got, err := oddsmath.ProbabilityToAmerican(tt.prob)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ProbabilityToAmerican(%.2f)", tt.prob)
	}

	_, err := oddsmath.ProbabilityToAmerican(1.0)
	assert.Error(t, err)
	_, err = oddsmath.ProbabilityToAmerican(0)
	assert.Error(t, err)
}
