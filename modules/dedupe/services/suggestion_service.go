package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/atrium-hq/atrium/modules/dedupe/domain/aggregates/suggestion"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/metrics"
)

const (
	scoreUsername      = 0.95
	scoreEmail         = 1.0
	scoreSimilarityCap = 0.95
)

// SuggestionService runs the three candidate scans and writes scored
// pairs through one idempotent insert path. An external scheduler calls
// GenerateSuggestions per tenant.
type SuggestionService struct {
	repo    suggestion.Repository
	options configuration.SuggestionOptions
	clock   clockwork.Clock
	logger  *logrus.Logger
}

func NewSuggestionService(
	repo suggestion.Repository,
	options configuration.SuggestionOptions,
	clock clockwork.Clock,
	logger *logrus.Logger,
) *SuggestionService {
	return &SuggestionService{
		repo:    repo,
		options: options,
		clock:   clock,
		logger:  logger,
	}
}

func (s *SuggestionService) GetPaginated(ctx context.Context, params *suggestion.FindParams) ([]suggestion.Suggestion, int64, error) {
	return s.repo.GetPaginated(ctx, params)
}

// GenerateSuggestions scans members created inside the window and writes
// candidate pairs. Pairs are canonicalized, collapsed to their maximum
// score within the batch and inserted in bounded chunks; a failed chunk
// is logged and skipped, the run continues.
func (s *SuggestionService) GenerateSuggestions(ctx context.Context, windowHours float64) error {
	if windowHours <= 0 {
		windowHours = s.options.WindowHours
	}
	windowStart := s.clock.Now().UTC().Add(-time.Duration(windowHours * float64(time.Hour)))

	batch := make(map[suggestion.Pair]float64)
	counts := make(map[string]int)

	usernameCandidates, err := s.repo.ByUsername(ctx, windowStart)
	if err != nil {
		return err
	}
	for _, c := range usernameCandidates {
		collect(batch, counts, "username", c.MemberID, c.OtherID, scoreUsername)
	}

	emailCandidates, err := s.repo.ByEmail(ctx, windowStart)
	if err != nil {
		return err
	}
	for _, c := range emailCandidates {
		collect(batch, counts, "email", c.MemberID, c.OtherID, scoreEmail)
	}

	similarityCandidates, err := s.repo.BySimilarity(ctx, windowStart, s.options.SampleLimit)
	if err != nil {
		return err
	}
	for _, c := range similarityCandidates {
		score := c.Similarity
		if score > scoreSimilarityCap {
			score = scoreSimilarityCap
		}
		collect(batch, counts, "similarity", c.MemberID, c.OtherID, score)
	}

	pending := make([]suggestion.Suggestion, 0, len(batch))
	for pair, score := range batch {
		pending = append(pending, suggestion.Suggestion{Pair: pair, Similarity: score})
	}

	s.insertChunked(ctx, pending)

	for strategy, n := range counts {
		metrics.SuggestionsGenerated.WithLabelValues(strategy).Add(float64(n))
	}
	s.logger.WithFields(logrus.Fields{
		"window_start": windowStart,
		"pairs":        len(pending),
	}).Info("suggestion generation finished")
	return nil
}

// collect folds a candidate into the batch, keeping the maximum score per
// canonical pair.
func collect(batch map[suggestion.Pair]float64, counts map[string]int, strategy string, a, b uuid.UUID, score float64) {
	pair := suggestion.NewPair(a, b)
	if existing, ok := batch[pair]; ok && existing >= score {
		return
	}
	batch[pair] = score
	counts[strategy]++
}

func (s *SuggestionService) insertChunked(ctx context.Context, pending []suggestion.Suggestion) {
	chunkLen := s.options.InsertChunkLen
	if chunkLen <= 0 {
		chunkLen = 100
	}

	for start := 0; start < len(pending); start += chunkLen {
		end := start + chunkLen
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
			// A pair can be confirmed or rejected between scan and
			// insert; recheck right before the write. Best effort: two
			// concurrent runs can still both pass this check.
			pairs := make([]suggestion.Pair, len(chunk))
			for i, sg := range chunk {
				pairs[i] = sg.Pair
			}
			existing, err := s.repo.ExistingPairs(txCtx, pairs)
			if err != nil {
				return err
			}
			fresh := chunk[:0:0]
			for _, sg := range chunk {
				if _, ok := existing[sg.Pair]; ok {
					continue
				}
				fresh = append(fresh, sg)
			}
			return s.repo.InsertSuggestions(txCtx, fresh)
		})
		if err != nil {
			metrics.SuggestionChunkFailures.Inc()
			s.logger.WithError(err).WithFields(logrus.Fields{
				"chunk_start": start,
				"chunk_len":   len(chunk),
			}).Error("suggestion chunk insert failed, continuing")
		}
	}
}
