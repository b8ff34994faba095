package commission

import "errors"

// Tier is the craftworker subscription tier the commission rate derives from.

type Tier string

const (
	TierStart Tier = "start"
	TierPro   Tier = "pro"
)

var (
	ErrUnknownTier   = errors.New("unknown subscription tier")
	ErrInvalidAmount = errors.New("gross amount must be a positive integer in minor units")
)

// Commission rates in basis points of the gross amount.
const (
	rateStartBP = int64(1000) // 10%
	rateProBP   = int64(500)  // 5%
)

// Split is the result of dividing a gross amount between the platform and
// the craftworker. PlatformFee + Payout always equals the gross amount.

type Split struct {
	PlatformFee int64
	Payout      int64
}

// RateBasisPoints returns the commission rate for a tier.
func RateBasisPoints(tier Tier) (int64, error) {
	switch tier {
	case TierStart:
		return rateStartBP, nil
	case TierPro:
		return rateProBP, nil
	default:
		return 0, ErrUnknownTier
	}
}

// ComputeSplit maps (gross amount in minor units, tier) to the platform fee
// and payout. The fee is rounded half-up on minor units; the payout is the
// remainder by subtraction, never rounded independently, so no minor unit is
// ever lost or invented.
func ComputeSplit(grossAmount int64, tier Tier) (Split, error) {
	if grossAmount <= 0 {
		return Split{}, ErrInvalidAmount
	}
	rate, err := RateBasisPoints(tier)
	if err != nil {
		return Split{}, err
	}

	fee := (grossAmount*rate + 5000) / 10000
	return Split{PlatformFee: fee, Payout: grossAmount - fee}, nil
}
