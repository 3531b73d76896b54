package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/modules/dedupe/domain/aggregates/suggestion"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/serrors"
)

type fakeSuggestionRepo struct {
	usernameCandidates   []suggestion.Candidate
	emailCandidates      []suggestion.Candidate
	similarityCandidates []suggestion.ScoredCandidate

	existing    map[suggestion.Pair]struct{}
	inserted    []suggestion.Suggestion
	insertCalls int
	failChunk   int // 1-based call index that fails, 0 for none

	removedPairs       []suggestion.Pair
	removedReferencing []uuid.UUID
	exclusions         []suggestion.Pair
}

func (f *fakeSuggestionRepo) ByUsername(context.Context, time.Time) ([]suggestion.Candidate, error) {
	return f.usernameCandidates, nil
}

func (f *fakeSuggestionRepo) ByEmail(context.Context, time.Time) ([]suggestion.Candidate, error) {
	return f.emailCandidates, nil
}

func (f *fakeSuggestionRepo) BySimilarity(context.Context, time.Time, int) ([]suggestion.ScoredCandidate, error) {
	return f.similarityCandidates, nil
}

func (f *fakeSuggestionRepo) ExistingPairs(_ context.Context, pairs []suggestion.Pair) (map[suggestion.Pair]struct{}, error) {
	out := make(map[suggestion.Pair]struct{})
	for _, pair := range pairs {
		if _, ok := f.existing[pair]; ok {
			out[pair] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeSuggestionRepo) InsertSuggestions(_ context.Context, suggestions []suggestion.Suggestion) error {
	f.insertCalls++
	if f.failChunk > 0 && f.insertCalls == f.failChunk {
		return serrors.Consistency("chunk write failed")
	}
	f.inserted = append(f.inserted, suggestions...)
	return nil
}

func (f *fakeSuggestionRepo) GetPaginated(context.Context, *suggestion.FindParams) ([]suggestion.Suggestion, int64, error) {
	return f.inserted, int64(len(f.inserted)), nil
}

func (f *fakeSuggestionRepo) RemovePair(_ context.Context, pair suggestion.Pair) error {
	f.removedPairs = append(f.removedPairs, pair)
	return nil
}

func (f *fakeSuggestionRepo) RemoveReferencing(_ context.Context, memberID uuid.UUID) error {
	f.removedReferencing = append(f.removedReferencing, memberID)
	return nil
}

func (f *fakeSuggestionRepo) AddExclusion(_ context.Context, pair suggestion.Pair) error {
	f.exclusions = append(f.exclusions, pair)
	return nil
}

type stubTx struct{ pgx.Tx }

func dedupeTestContext() context.Context {
	ctx := composables.WithTenantID(context.Background(), uuid.New())
	return composables.WithTx(ctx, stubTx{})
}

func newSuggestionService(repo *fakeSuggestionRepo, chunkLen int) *SuggestionService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewSuggestionService(repo, configuration.SuggestionOptions{
		WindowHours:    1.2,
		SampleLimit:    1000,
		InsertChunkLen: chunkLen,
	}, clockwork.NewFakeClock(), logger)
}

func insertedScores(repo *fakeSuggestionRepo) map[suggestion.Pair]float64 {
	out := make(map[suggestion.Pair]float64)
	for _, s := range repo.inserted {
		out[s.Pair] = s.Similarity
	}
	return out
}

func TestGenerateSuggestions_StrategyScores(t *testing.T) {
	usernameA, usernameB := uuid.New(), uuid.New()
	emailA, emailB := uuid.New(), uuid.New()
	similarA, similarB := uuid.New(), uuid.New()
	cappedA, cappedB := uuid.New(), uuid.New()

	repo := &fakeSuggestionRepo{
		usernameCandidates: []suggestion.Candidate{{MemberID: usernameA, OtherID: usernameB}},
		emailCandidates:    []suggestion.Candidate{{MemberID: emailA, OtherID: emailB}},
		similarityCandidates: []suggestion.ScoredCandidate{
			{Candidate: suggestion.Candidate{MemberID: similarA, OtherID: similarB}, Similarity: 0.72},
			{Candidate: suggestion.Candidate{MemberID: cappedA, OtherID: cappedB}, Similarity: 0.99},
		},
	}
	svc := newSuggestionService(repo, 100)

	require.NoError(t, svc.GenerateSuggestions(dedupeTestContext(), 0))

	scores := insertedScores(repo)
	require.Len(t, scores, 4)
	require.Equal(t, 0.95, scores[suggestion.NewPair(usernameA, usernameB)])
	require.Equal(t, 1.0, scores[suggestion.NewPair(emailA, emailB)])
	require.Equal(t, 0.72, scores[suggestion.NewPair(similarA, similarB)])
	require.Equal(t, 0.95, scores[suggestion.NewPair(cappedA, cappedB)], "similarity never reports 1.0")
}

func TestGenerateSuggestions_MaxScorePerPair(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := &fakeSuggestionRepo{
		// Same pair from both directions and from two strategies.
		usernameCandidates: []suggestion.Candidate{
			{MemberID: a, OtherID: b},
			{MemberID: b, OtherID: a},
		},
		emailCandidates: []suggestion.Candidate{{MemberID: b, OtherID: a}},
	}
	svc := newSuggestionService(repo, 100)

	require.NoError(t, svc.GenerateSuggestions(dedupeTestContext(), 0))

	require.Len(t, repo.inserted, 1)
	require.Equal(t, 1.0, repo.inserted[0].Similarity)
	require.Equal(t, suggestion.NewPair(a, b), repo.inserted[0].Pair)
}

func TestGenerateSuggestions_SkipsExistingPairs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c, d := uuid.New(), uuid.New()
	repo := &fakeSuggestionRepo{
		usernameCandidates: []suggestion.Candidate{
			{MemberID: a, OtherID: b},
			{MemberID: c, OtherID: d},
		},
		existing: map[suggestion.Pair]struct{}{
			suggestion.NewPair(a, b): {},
		},
	}
	svc := newSuggestionService(repo, 100)

	require.NoError(t, svc.GenerateSuggestions(dedupeTestContext(), 0))

	scores := insertedScores(repo)
	require.Len(t, scores, 1)
	require.Contains(t, scores, suggestion.NewPair(c, d))
}

func TestGenerateSuggestions_FailedChunkDoesNotAbortRun(t *testing.T) {
	var candidates []suggestion.Candidate
	for i := 0; i < 25; i++ {
		candidates = append(candidates, suggestion.Candidate{MemberID: uuid.New(), OtherID: uuid.New()})
	}
	repo := &fakeSuggestionRepo{
		usernameCandidates: candidates,
		failChunk:          2,
	}
	svc := newSuggestionService(repo, 10)

	require.NoError(t, svc.GenerateSuggestions(dedupeTestContext(), 0))

	require.Equal(t, 3, repo.insertCalls)
	require.Len(t, repo.inserted, 15, "the failed chunk is skipped, the rest lands")
}
