package suggestion

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPair_CanonicalOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	require.Equal(t, NewPair(a, b), NewPair(b, a))
	assert.Equal(t, a, NewPair(b, a).MemberID)
	assert.Equal(t, b, NewPair(b, a).SuggestedID)
}

func TestPair_References(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	pair := NewPair(a, b)

	assert.True(t, pair.References(a))
	assert.True(t, pair.References(b))
	assert.False(t, pair.References(uuid.New()))
}
