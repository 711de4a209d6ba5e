package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidKey(t *testing.T) {
	assert.False(t, ValidKey([KeySize]byte{}))
	assert.True(t, ValidKey(makeKey(0x01)))

	// A single non-zero byte is enough.
	var k [KeySize]byte
	k[KeySize-1] = 1
	assert.True(t, ValidKey(k))
}

func TestValidHash(t *testing.T) {
	assert.False(t, ValidHash([HashSize]byte{}))
	assert.True(t, ValidHash(makeHash(0x01)))
}

func TestValidReason(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		want   bool
	}{
		{"empty", "", false},
		{"single char", "x", true},
		{"at bound", string(make([]byte, MaxReasonLen)), true},
		{"over bound", string(make([]byte, MaxReasonLen+1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidReason(tt.reason))
		})
	}
}

func TestValidPrincipal(t *testing.T) {
	assert.False(t, ValidPrincipal(NullPrincipal))
	assert.True(t, ValidPrincipal(makePrincipal(0x01)))
}

func TestValidFileID(t *testing.T) {
	tests := []struct {
		name   string
		id     uint64
		nextID uint64
		want   bool
	}{
		{"zero id", 0, 5, false},
		{"first issued", 1, 5, true},
		{"last issued", 4, 5, true},
		{"next unissued", 5, 5, false},
		{"beyond", 100, 5, false},
		{"empty registry", 1, FirstFileID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validFileID(tt.id, tt.nextID))
		})
	}
}
