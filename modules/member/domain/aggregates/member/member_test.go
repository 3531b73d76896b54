package member

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMember(name string, emails []string, score int, joinedAt time.Time) Member {
	now := time.Now().UTC()
	return Hydrate(uuid.New(), uuid.New(), name, emails, score, joinedAt, nil, now, now)
}

func TestMergeProfile_EarliestRealJoinDate(t *testing.T) {
	early := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	merged := MergeProfile(testMember("w", nil, 0, late), testMember("l", nil, 0, early))
	assert.Equal(t, early, merged.JoinedAt())

	merged = MergeProfile(testMember("w", nil, 0, early), testMember("l", nil, 0, late))
	assert.Equal(t, early, merged.JoinedAt())
}

func TestMergeProfile_IgnoresEpochPlaceholders(t *testing.T) {
	real := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	placeholder := time.Unix(0, 0).UTC()

	merged := MergeProfile(testMember("w", nil, 0, real), testMember("l", nil, 0, placeholder))
	assert.Equal(t, real, merged.JoinedAt())

	merged = MergeProfile(testMember("w", nil, 0, placeholder), testMember("l", nil, 0, real))
	assert.Equal(t, real, merged.JoinedAt())
}

func TestMergeProfile_UnionsEmailsAndKeepsWinnerName(t *testing.T) {
	winner := testMember("Ada Lovelace", []string{"Ada@Acme.com"}, 10, time.Now().UTC())
	loser := testMember("ada", []string{"ada@acme.com", "ada@gmail.com"}, 40, time.Now().UTC())

	merged := MergeProfile(winner, loser)
	require.Equal(t, "Ada Lovelace", merged.DisplayName())
	require.Equal(t, []string{"ada@acme.com", "ada@gmail.com"}, merged.Emails())
	require.Equal(t, 40, merged.Score())
}

func TestIdentityEqual(t *testing.T) {
	a := Identity{Platform: "github", Username: "ada"}
	assert.True(t, a.Equal(Identity{Platform: "github", Username: "ada"}))
	assert.False(t, a.Equal(Identity{Platform: "slack", Username: "ada"}))
	assert.False(t, a.Equal(Identity{Platform: "github", Username: "ada2"}))
}
