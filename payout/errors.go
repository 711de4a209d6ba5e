package payout

import "errors"

var (
	// ErrNoRecipients indicates an empty split table.
	ErrNoRecipients = errors.New("payout: no recipients")

	// ErrNullRecipient indicates a split naming the null identity.
	ErrNullRecipient = errors.New("payout: null recipient principal")

	// ErrDuplicateRecipient indicates a principal listed twice.
	ErrDuplicateRecipient = errors.New("payout: duplicate recipient")

	// ErrInvalidBasisPoints indicates a share outside 1..10000.
	ErrInvalidBasisPoints = errors.New("payout: basis points out of range")

	// ErrBadSplitTotal indicates shares that do not sum to 10000.
	ErrBadSplitTotal = errors.New("payout: basis points must sum to 10000")

	// ErrZeroDeposit indicates a deposit of zero.
	ErrZeroDeposit = errors.New("payout: zero deposit amount")

	// ErrNoBalance indicates a withdrawal with nothing accrued.
	ErrNoBalance = errors.New("payout: no balance to withdraw")
)
