package oddsmath

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOdds is matched by every *InvalidOddsError via errors.Is.
var ErrInvalidOdds = errors.New("invalid American odds")

// InvalidOddsError reports an American price inside (-100, 100).
// Such prices do not exist on a real board and would produce
// probabilities outside [0, 1].
type InvalidOddsError struct {
	Price int
}

func (e *InvalidOddsError) Error() string {
	return fmt.Sprintf("invalid American odds %d: must be <= -100 or >= 100", e.Price)
}

func (e *InvalidOddsError) Is(target error) bool {
	return target == ErrInvalidOdds
}

// Validate returns an *InvalidOddsError for prices in (-100, 100).
func Validate(price int) error {
	if price > -100 && price < 100 {
		return &InvalidOddsError{Price: price}
	}
	return nil
}

// ImpliedProbability converts American odds to the bookmaker's implied probability
// American +150 → 100 / 250 = 0.4000
// American -130 → 130 / 230 = 0.5652
func ImpliedProbability(price int) (float64, error) {
	if err := Validate(price); err != nil {
		return 0, err
	}

	if price > 0 {
		return 100.0 / (float64(price) + 100.0), nil
	}

	abs := float64(-price)
	return abs / (abs + 100.0), nil
}

// DecimalOdds converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func DecimalOdds(price int) (float64, error) {
	if err := Validate(price); err != nil {
		return 0, err
	}

	if price > 0 {
		return (float64(price) / 100.0) + 1.0, nil
	}

	return (100.0 / float64(-price)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -150
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", decimal)
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ProbabilityToAmerican returns the no-vig American price for a probability.
// 0.60 → -150, 0.40 → +150
func ProbabilityToAmerican(probability float64) (int, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("invalid probability %.4f: must be between 0 and 1", probability)
	}

	return DecimalToAmerican(1.0 / probability)
}
