package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/config"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/repository"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// iconFetchLimit bounds concurrent object-store reads per listing.
const iconFetchLimit = 8

// UpdateEvaluationInput carries the flags to change. Nil flags keep their
// stored value. A non-empty EvaluateeID must match the stored evaluatee.
type UpdateEvaluationInput struct {
	EvaluationID string
	EvaluateeID  string
	IsPublished  *bool
	IsDeleted    *bool
}

type EvaluationService struct {
	evaluations   repository.Repository[models.Evaluation]
	users         repository.Repository[models.User]
	icons         storage.IconStore
	filter        *ContentFilter
	aggregateMode string
	locks         *UserLocks
	now           func() time.Time
}

// NewEvaluationService wires the service. filter may be nil to accept any text.
func NewEvaluationService(
	evaluations repository.Repository[models.Evaluation],
	users repository.Repository[models.User],
	icons storage.IconStore,
	filter *ContentFilter,
	aggregateMode string,
	locks *UserLocks,
) *EvaluationService {
	if aggregateMode == "" {
		aggregateMode = config.AggregateLegacy
	}
	return &EvaluationService{
		evaluations:   evaluations,
		users:         users,
		icons:         icons,
		filter:        filter,
		aggregateMode: aggregateMode,
		locks:         locks,
		now:           time.Now,
	}
}

// Create stores an unpublished evaluation for evaluateeID and then bumps the
// evaluatee's total count. The two writes are separate; if the second fails
// the evaluation stays stored and the error is returned.
func (s *EvaluationService) Create(ctx context.Context, input *models.EvaluationInput, evaluateeID string) (*models.Evaluation, error) {
	return s.CreateWithIcon(ctx, input, evaluateeID, nil)
}

// CreateWithIcon is Create with an evaluator icon upload. The icon is only
// written once the input and the evaluatee have passed every check.
func (s *EvaluationService) CreateWithIcon(ctx context.Context, input *models.EvaluationInput, evaluateeID string, icon *storage.Icon) (*models.Evaluation, error) {
	if input == nil {
		return nil, ErrEvaluationInputRequired
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	evaluatee, err := s.users.Get(ctx, evaluateeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrEvaluationCreate, err)
	}
	if evaluatee.IsDeleted {
		return nil, ErrUserNotFound
	}

	if icon != nil {
		if s.icons == nil {
			return nil, storage.ErrIconCreate
		}
		key, err := s.icons.UploadIcon(ctx, *icon, storage.EvaluatorOwner(input.EvaluatorName))
		if err != nil {
			return nil, err
		}
		input.EvaluatorIconKey = key
	}

	now := s.now()
	ev := &models.Evaluation{
		EvaluateeID:      evaluateeID,
		EvaluatorName:    input.EvaluatorName,
		EvaluatorIconKey: input.EvaluatorIconKey,
		Relationship:     input.Relationship,
		Comment:          input.Comment,
		E1:               input.E1,
		E2:               input.E2,
		E3:               input.E3,
		E4:               input.E4,
		E5:               input.E5,
		E6:               input.E6,
		IsPublished:      false,
		IsDeleted:        false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.evaluations.Set(ctx, uuid.NewString(), ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationCreate, err)
	}

	if err := s.incrementTotal(ctx, evaluateeID); err != nil {
		slog.Error("evaluation stored but total count not updated",
			"evaluation_id", ev.ID, "evaluatee_id", evaluateeID, "error", err)
		return ev, fmt.Errorf("%w: %w", ErrEvaluationCreate, err)
	}
	return ev, nil
}

// validate sanitises the free text in place, then checks points and content.
func (s *EvaluationService) validate(input *models.EvaluationInput) error {
	input.EvaluatorName = sanitizeText(input.EvaluatorName)
	input.Relationship = sanitizeText(input.Relationship)
	input.Comment = sanitizeText(input.Comment)

	texts := []string{input.EvaluatorName, input.Relationship, input.Comment}
	for i, r := range input.Ratings() {
		if r.Point < models.MinPoint || r.Point > models.MaxPoint {
			return fmt.Errorf("%w: %s is %v", ErrInvalidPoint, models.CategoryKeys[i], r.Point)
		}
		r.Reason = sanitizeText(r.Reason)
		texts = append(texts, r.Reason)
	}

	if s.filter == nil {
		return nil
	}
	for _, text := range texts {
		if ok, reason := s.filter.Check(text); !ok {
			return fmt.Errorf("%w: %s", ErrContentRejected, RejectionMessage(reason))
		}
	}
	return nil
}

// Get returns the evaluation stored under id. The evaluator icon is not
// fetched; callers that show it use AttachIcon.
func (s *EvaluationService) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	ev, err := s.evaluations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrEvaluationGet, err)
	}
	return ev, nil
}

// ListAll returns every live evaluation about evaluateeID, newest first.
func (s *EvaluationService) ListAll(ctx context.Context, evaluateeID string) ([]models.Evaluation, error) {
	return s.list(ctx, repository.Where{
		"evaluatee_id": evaluateeID,
		"is_deleted":   false,
	})
}

// ListPublished is ListAll restricted to published evaluations.
func (s *EvaluationService) ListPublished(ctx context.Context, evaluateeID string) ([]models.Evaluation, error) {
	return s.list(ctx, repository.Where{
		"evaluatee_id": evaluateeID,
		"is_deleted":   false,
		"is_published": true,
	})
}

func (s *EvaluationService) list(ctx context.Context, where repository.Where) ([]models.Evaluation, error) {
	evs, err := s.evaluations.Filter(ctx, where)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationGet, err)
	}
	if len(evs) == 0 {
		return []models.Evaluation{}, nil
	}

	slices.SortFunc(evs, func(a, b models.Evaluation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(iconFetchLimit)
	for i := range evs {
		if evs[i].EvaluatorIconKey == "" {
			continue
		}
		i := i
		g.Go(func() error {
			s.AttachIcon(gctx, &evs[i])
			return nil
		})
	}
	_ = g.Wait()
	return evs, nil
}

// AttachIcon fills EvaluatorIconURL. A missing icon leaves it empty.
func (s *EvaluationService) AttachIcon(ctx context.Context, ev *models.Evaluation) {
	if ev.EvaluatorIconKey == "" || s.icons == nil {
		return
	}
	icon, err := s.icons.GetIcon(ctx, ev.EvaluatorIconKey)
	if err != nil {
		slog.Warn("evaluator icon unavailable", "evaluation_id", ev.ID, "key", ev.EvaluatorIconKey, "error", err)
		return
	}
	ev.EvaluatorIconURL = storage.DataURI(icon)
}

// Update merges the supplied flags over the stored evaluation, writes it back,
// then adjusts the evaluatee's published averages according to the
// configured aggregate mode.
func (s *EvaluationService) Update(ctx context.Context, in UpdateEvaluationInput) (bool, error) {
	ev, err := s.evaluations.Get(ctx, in.EvaluationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrEvaluationNotFound
		}
		return false, fmt.Errorf("%w: %w", ErrEvaluationUpdate, err)
	}
	if in.EvaluateeID != "" && ev.EvaluateeID != in.EvaluateeID {
		return false, ErrNotOwner
	}
	if ev.IsDeleted {
		return false, ErrEvaluationNotFound
	}

	wasCounted := ev.IsPublished
	if in.IsPublished != nil {
		ev.IsPublished = *in.IsPublished
	}
	if in.IsDeleted != nil {
		ev.IsDeleted = *in.IsDeleted
	}
	ev.UpdatedAt = s.now()

	if err := s.evaluations.Set(ctx, ev.ID, ev); err != nil {
		return false, fmt.Errorf("%w: %w", ErrEvaluationUpdate, err)
	}

	delta := s.aggregateDelta(in, wasCounted, ev.IsPublished && !ev.IsDeleted)
	if delta == 0 {
		return true, nil
	}
	if err := s.adjustAverages(ctx, ev.EvaluateeID, ev.Points(), delta); err != nil {
		slog.Error("evaluation updated but averages not adjusted",
			"evaluation_id", ev.ID, "evaluatee_id", ev.EvaluateeID, "error", err)
		return false, fmt.Errorf("%w: %w", ErrEvaluationUpdate, err)
	}
	return true, nil
}

// aggregateDelta is +1, -1 or 0. Legacy mode increments whenever the call
// publishes and decrements on every other call, deletes included. Transition
// mode only moves when the evaluation enters or leaves the published set.
func (s *EvaluationService) aggregateDelta(in UpdateEvaluationInput, wasCounted, isCounted bool) int {
	if s.aggregateMode == config.AggregateTransition {
		switch {
		case !wasCounted && isCounted:
			return 1
		case wasCounted && !isCounted:
			return -1
		default:
			return 0
		}
	}
	if in.IsPublished != nil && *in.IsPublished {
		return 1
	}
	return -1
}

func (s *EvaluationService) incrementTotal(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	user.AllEvaluationNum++
	user.UpdatedAt = s.now()
	return s.users.Set(ctx, userID, user)
}

func (s *EvaluationService) adjustAverages(ctx context.Context, userID string, points [models.CategoryCount]float64, delta int) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	avg, n := user.Average.Values(), user.PublishedEvaluationNum
	if delta > 0 {
		avg, n = addToAverage(avg, n, points)
	} else {
		avg, n = removeFromAverage(avg, n, points)
	}
	user.Average.SetValues(avg)
	user.PublishedEvaluationNum = n
	user.UpdatedAt = s.now()
	return s.users.Set(ctx, userID, user)
}

func addToAverage(avg [models.CategoryCount]float64, n int, points [models.CategoryCount]float64) ([models.CategoryCount]float64, int) {
	if n < 0 {
		n = 0
	}
	for i := range avg {
		avg[i] = (avg[i]*float64(n) + points[i]) / float64(n+1)
	}
	return avg, n + 1
}

// removeFromAverage reverses addToAverage. Removing the last (or a phantom)
// entry resets the average to zero.
func removeFromAverage(avg [models.CategoryCount]float64, n int, points [models.CategoryCount]float64) ([models.CategoryCount]float64, int) {
	if n <= 1 {
		return [models.CategoryCount]float64{}, 0
	}
	for i := range avg {
		v := (avg[i]*float64(n) - points[i]) / float64(n-1)
		if v < 0 {
			v = 0
		}
		avg[i] = v
	}
	return avg, n - 1
}
