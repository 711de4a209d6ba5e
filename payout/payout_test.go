package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filereg-org/libfilereg-go/registry"
)

func makePrincipal(seed byte) registry.Principal {
	var p registry.Principal
	for i := range p {
		p[i] = seed
	}
	return p
}

// --- ValidateSplits tests ---

func TestValidateSplits(t *testing.T) {
	a := makePrincipal(0xAA)
	b := makePrincipal(0xBB)

	tests := []struct {
		name    string
		splits  []Split
		wantErr error
	}{
		{"empty", nil, ErrNoRecipients},
		{"single full share", []Split{{a, 10000}}, nil},
		{"two way", []Split{{a, 3000}, {b, 7000}}, nil},
		{"null recipient", []Split{{registry.NullPrincipal, 10000}}, ErrNullRecipient},
		{"duplicate", []Split{{a, 5000}, {a, 5000}}, ErrDuplicateRecipient},
		{"zero share", []Split{{a, 0}, {b, 10000}}, ErrInvalidBasisPoints},
		{"share too large", []Split{{a, 10001}}, ErrInvalidBasisPoints},
		{"under total", []Split{{a, 4000}, {b, 5000}}, ErrBadSplitTotal},
		{"over total", []Split{{a, 6000}, {b, 5000}}, ErrBadSplitTotal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(tt.splits)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// --- DistributePayment tests ---

func TestDistributePayment(t *testing.T) {
	a := makePrincipal(0xAA)
	b := makePrincipal(0xBB)
	c := makePrincipal(0xCC)
	splits := []Split{{a, 3000}, {b, 2000}, {c, 5000}}

	distributions, err := DistributePayment(1000, splits)
	require.NoError(t, err)
	require.Len(t, distributions, 3)
	assert.Equal(t, uint64(300), distributions[0].Amount)
	assert.Equal(t, uint64(200), distributions[1].Amount)
	assert.Equal(t, uint64(500), distributions[2].Amount)
}

func TestDistributePayment_RemainderToLast(t *testing.T) {
	a := makePrincipal(0xAA)
	b := makePrincipal(0xBB)
	c := makePrincipal(0xCC)
	splits := []Split{{a, 3333}, {b, 3333}, {c, 3334}}

	// 100 does not divide evenly; the last recipient absorbs the dust
	// so the total is conserved exactly.
	distributions, err := DistributePayment(100, splits)
	require.NoError(t, err)

	var total uint64
	for _, d := range distributions {
		total += d.Amount
	}
	assert.Equal(t, uint64(100), total)
	assert.Equal(t, uint64(33), distributions[0].Amount)
	assert.Equal(t, uint64(33), distributions[1].Amount)
	assert.Equal(t, uint64(34), distributions[2].Amount)
}

func TestDistributePayment_ZeroAmount(t *testing.T) {
	_, err := DistributePayment(0, []Split{{makePrincipal(0xAA), 10000}})
	assert.ErrorIs(t, err, ErrZeroDeposit)
}

// --- Pool tests ---

func TestPool_DepositAndWithdraw(t *testing.T) {
	a := makePrincipal(0xAA)
	b := makePrincipal(0xBB)
	pool, err := NewPool([]Split{{a, 2500}, {b, 7500}})
	require.NoError(t, err)

	_, err = pool.Deposit(1000)
	require.NoError(t, err)
	_, err = pool.Deposit(1000)
	require.NoError(t, err)

	assert.Equal(t, uint64(500), pool.Balance(a))
	assert.Equal(t, uint64(1500), pool.Balance(b))
	assert.Equal(t, uint64(2000), pool.TotalHeld())

	got, err := pool.Withdraw(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)
	assert.Zero(t, pool.Balance(a))
	assert.Equal(t, uint64(1500), pool.TotalHeld())

	// Nothing left for a second withdrawal.
	_, err = pool.Withdraw(a)
	assert.ErrorIs(t, err, ErrNoBalance)
}

func TestPool_WithdrawStranger(t *testing.T) {
	pool, err := NewPool([]Split{{makePrincipal(0xAA), 10000}})
	require.NoError(t, err)

	_, err = pool.Withdraw(makePrincipal(0xBB))
	assert.ErrorIs(t, err, ErrNoBalance)
}

func TestPool_RejectsBadSplits(t *testing.T) {
	_, err := NewPool([]Split{{makePrincipal(0xAA), 9999}})
	assert.ErrorIs(t, err, ErrBadSplitTotal)
}

func TestPool_SplitsAreCopied(t *testing.T) {
	splits := []Split{{makePrincipal(0xAA), 10000}}
	pool, err := NewPool(splits)
	require.NoError(t, err)

	// Mutating the caller's slice must not affect the pool.
	splits[0].BasisPoints = 1
	got := pool.Splits()
	assert.Equal(t, uint64(10000), got[0].BasisPoints)
}

// TestPool_Conservation checks deposits minus withdrawals always equal
// the held total across a mixed sequence.
func TestPool_Conservation(t *testing.T) {
	a := makePrincipal(0xAA)
	b := makePrincipal(0xBB)
	c := makePrincipal(0xCC)
	pool, err := NewPool([]Split{{a, 1000}, {b, 4500}, {c, 4500}})
	require.NoError(t, err)

	var deposited, withdrawn uint64
	for _, amount := range []uint64{1, 7, 99, 1000, 123456} {
		_, err := pool.Deposit(amount)
		require.NoError(t, err)
		deposited += amount
	}

	got, err := pool.Withdraw(b)
	require.NoError(t, err)
	withdrawn += got

	assert.Equal(t, deposited-withdrawn, pool.TotalHeld())
}
