package payout

import (
	"fmt"

	"github.com/filereg-org/libfilereg-go/registry"
)

// Pool accrues deposited funds against a fixed split table until the
// recipients withdraw them. The split table is immutable after
// construction; the surrounding ledger serializes calls, so the pool
// holds no locks.
type Pool struct {
	splits   []Split
	balances map[registry.Principal]uint64
}

// NewPool creates a pool over a validated split table.
func NewPool(splits []Split) (*Pool, error) {
	if err := ValidateSplits(splits); err != nil {
		return nil, err
	}
	cp := make([]Split, len(splits))
	copy(cp, splits)
	return &Pool{
		splits:   cp,
		balances: make(map[registry.Principal]uint64),
	}, nil
}

// Splits returns a copy of the split table.
func (p *Pool) Splits() []Split {
	cp := make([]Split, len(p.splits))
	copy(cp, p.splits)
	return cp
}

// Deposit splits amount across the recipients and accrues each portion
// to its balance. Returns the resulting distribution.
func (p *Pool) Deposit(amount uint64) ([]Distribution, error) {
	distributions, err := DistributePayment(amount, p.splits)
	if err != nil {
		return nil, err
	}
	for _, d := range distributions {
		p.balances[d.Recipient] += d.Amount
	}
	return distributions, nil
}

// Balance returns the accrued, unwithdrawn balance for a recipient.
func (p *Pool) Balance(recipient registry.Principal) uint64 {
	return p.balances[recipient]
}

// Withdraw zeroes and returns the recipient's accrued balance.
func (p *Pool) Withdraw(recipient registry.Principal) (uint64, error) {
	amount := p.balances[recipient]
	if amount == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoBalance, recipient.Hex())
	}
	delete(p.balances, recipient)
	return amount, nil
}

// TotalHeld returns the sum of all accrued balances. Deposits minus
// withdrawals always equal this exactly.
func (p *Pool) TotalHeld() uint64 {
	var total uint64
	for _, amount := range p.balances {
		total += amount
	}
	return total
}
