// Package payout implements percentage-based payment splitting with
// per-principal accrued balances and withdrawal. It is independent of
// the file registry core; the two share only the principal identity
// type.
package payout

import (
	"fmt"

	"github.com/filereg-org/libfilereg-go/registry"
)

// TotalBasisPoints is the required sum of all split shares (100%).
const TotalBasisPoints = 10000

// Split assigns a recipient a fixed share of every deposit, expressed
// in basis points (1/100th of a percent).
type Split struct {
	Recipient   registry.Principal
	BasisPoints uint64
}

// Distribution is one recipient's portion of a single deposit.
type Distribution struct {
	Recipient registry.Principal
	Amount    uint64
}

// ValidateSplits checks a split table: at least one recipient, no null
// or duplicate principals, each share in 1..10000, and shares summing
// to exactly TotalBasisPoints.
func ValidateSplits(splits []Split) error {
	if len(splits) == 0 {
		return ErrNoRecipients
	}

	seen := make(map[registry.Principal]bool, len(splits))
	var total uint64
	for i, s := range splits {
		if s.Recipient.IsNull() {
			return fmt.Errorf("%w: entry %d", ErrNullRecipient, i)
		}
		if seen[s.Recipient] {
			return fmt.Errorf("%w: %s", ErrDuplicateRecipient, s.Recipient.Hex())
		}
		seen[s.Recipient] = true
		if s.BasisPoints == 0 || s.BasisPoints > TotalBasisPoints {
			return fmt.Errorf("%w: entry %d has %d", ErrInvalidBasisPoints, i, s.BasisPoints)
		}
		total += s.BasisPoints
	}
	if total != TotalBasisPoints {
		return fmt.Errorf("%w: got %d", ErrBadSplitTotal, total)
	}
	return nil
}

// DistributePayment calculates per-recipient portions of amount.
// The last recipient gets the remainder to avoid integer division
// precision loss, so the portions always sum to amount exactly.
func DistributePayment(amount uint64, splits []Split) ([]Distribution, error) {
	if amount == 0 {
		return nil, ErrZeroDeposit
	}
	if err := ValidateSplits(splits); err != nil {
		return nil, err
	}

	distributions := make([]Distribution, len(splits))
	var distributed uint64

	for i, s := range splits {
		distributions[i].Recipient = s.Recipient
		if i == len(splits)-1 {
			distributions[i].Amount = amount - distributed
		} else {
			portion := amount * s.BasisPoints / TotalBasisPoints
			distributions[i].Amount = portion
			distributed += portion
		}
	}

	return distributions, nil
}
