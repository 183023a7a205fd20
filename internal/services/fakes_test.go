package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/config"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/repository"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/testutil"
)

type fakeIDP struct {
	mu      sync.Mutex
	names   map[string]string
	emails  map[string]string
	deleted []string
	err     error
}

func newFakeIDP() *fakeIDP {
	return &fakeIDP{names: map[string]string{}, emails: map[string]string{}}
}

func (f *fakeIDP) UpdateName(_ context.Context, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.names[id] = name
	return nil
}

func (f *fakeIDP) UpdateEmail(_ context.Context, id, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.emails[id] = email
	return nil
}

func (f *fakeIDP) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeIcons struct {
	mu    sync.Mutex
	icons map[string]*storage.Icon
	reads int
}

func (f *fakeIcons) UploadIcon(_ context.Context, icon storage.Icon, owner storage.IconOwner) (string, error) {
	key, err := storage.IconPath(owner, icon.ContentType, time.Now())
	if err != nil {
		return "", errors.Join(storage.ErrIconCreate, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.icons[key] = &icon
	return key, nil
}

func (f *fakeIcons) GetIcon(_ context.Context, key string) (*storage.Icon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	icon, ok := f.icons[key]
	if !ok {
		return nil, storage.ErrIconGet
	}
	return icon, nil
}

type fixture struct {
	users       repository.Repository[models.User]
	evaluations repository.Repository[models.Evaluation]
	idp         *fakeIDP
	icons       *fakeIcons
	userSvc     *UserService
	evalSvc     *EvaluationService
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		users:       repository.NewGorm[models.User](db),
		evaluations: repository.NewGorm[models.Evaluation](db),
		idp:         newFakeIDP(),
		icons:       &fakeIcons{icons: map[string]*storage.Icon{}},
	}
	if mode == "" {
		mode = config.AggregateLegacy
	}
	locks := NewUserLocks()
	f.userSvc = NewUserService(f.users, f.idp, locks)
	f.evalSvc = NewEvaluationService(f.evaluations, f.users, f.icons, NewContentFilter(), mode, locks)

	clock := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	f.userSvc.now = tick
	f.evalSvc.now = tick
	return f
}

func validEvaluation(points ...float64) *models.EvaluationInput {
	p := [models.CategoryCount]float64{3, 3, 3, 3, 3, 3}
	copy(p[:], points)
	return &models.EvaluationInput{
		EvaluatorName: "Mehmet",
		Relationship:  "colleague",
		Comment:       "Always helpful in reviews.",
		E1:            models.Rating{Point: p[0], Reason: "clear"},
		E2:            models.Rating{Point: p[1], Reason: "kind"},
		E3:            models.Rating{Point: p[2], Reason: "prepared"},
		E4:            models.Rating{Point: p[3], Reason: "punctual"},
		E5:            models.Rating{Point: p[4], Reason: "curious"},
		E6:            models.Rating{Point: p[5], Reason: "steady"},
	}
}

func boolPtr(b bool) *bool { return &b }
