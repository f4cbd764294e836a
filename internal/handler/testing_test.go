package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/carhunt/carhunt/internal/auth"
	"github.com/carhunt/carhunt/internal/metrics"
	"github.com/carhunt/carhunt/internal/model"
	"github.com/carhunt/carhunt/internal/repository"
)

// fakeStore is an in-memory UserStore + HuntStore used by handler tests.
// It mirrors the repository's semantics: sentinel errors, check-then-act
// ownership on update/delete, order-preserving image sets.
type fakeStore struct {
	users []*model.User
	hunts []*model.Hunt

	failWith error // when set, every call fails with this error
}

func (f *fakeStore) CreateUser(ctx context.Context, user *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.users, nil
}

func (f *fakeStore) CreateHunt(ctx context.Context, hunt *model.Hunt, imageURLs []string) error {
	if f.failWith != nil {
		return f.failWith
	}
	hunt.Images = append([]string{}, imageURLs...)
	f.hunts = append(f.hunts, hunt)
	return nil
}

func (f *fakeStore) GetHuntByID(ctx context.Context, id string) (*model.Hunt, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, h := range f.hunts {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, repository.ErrHuntNotFound
}

func (f *fakeStore) ListHunts(ctx context.Context) ([]*model.Hunt, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.hunts, nil
}

func (f *fakeStore) ListHuntsByOwner(ctx context.Context, userID string) ([]*model.Hunt, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	own := make([]*model.Hunt, 0)
	for _, h := range f.hunts {
		if h.UserID == userID {
			own = append(own, h)
		}
	}
	return own, nil
}

func (f *fakeStore) UpdateHunt(ctx context.Context, huntID, userID string, in repository.UpdateHuntInput) (*model.Hunt, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	hunt, err := f.GetHuntByID(ctx, huntID)
	if err != nil {
		return nil, err
	}
	if hunt.UserID != userID {
		return nil, repository.ErrNotOwner
	}
	hunt.CarModel = in.CarModel
	hunt.CarType = in.CarType
	hunt.Location = in.Location
	hunt.UpdatedAt = time.Now().UTC()
	if in.ReplaceImages {
		hunt.Images = append([]string{}, in.Images...)
	}
	return hunt, nil
}

func (f *fakeStore) DeleteHunt(ctx context.Context, huntID, userID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i, h := range f.hunts {
		if h.ID == huntID {
			if h.UserID != userID {
				return repository.ErrNotOwner
			}
			f.hunts = append(f.hunts[:i], f.hunts[i+1:]...)
			return nil
		}
	}
	return repository.ErrHuntNotFound
}

// fakeFiles stores nothing; it returns deterministic paths and can be told
// to drop every n-th file to simulate per-file save failures.
type fakeFiles struct {
	dropEvery int
	saved     int
}

func (f *fakeFiles) SaveAll(files []*multipart.FileHeader) []string {
	stored := make([]string, 0, len(files))
	for i, fh := range files {
		if f.dropEvery > 0 && (i+1)%f.dropEvery == 0 {
			continue
		}
		f.saved++
		stored = append(stored, fmt.Sprintf("uploads/%d-%s", f.saved, fh.Filename))
	}
	return stored
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, store *fakeStore, email, password string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &model.User{
		ID:           fmt.Sprintf("user-%d", len(store.users)+1),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	store.users = append(store.users, user)
	return user
}

func withIdentity(req *http.Request, userID string) *http.Request {
	ctx := auth.ContextWithIdentity(req.Context(), &auth.Identity{UserID: userID})
	return req.WithContext(ctx)
}

func newRecorder() *metrics.InMemoryRecorder {
	return metrics.NewInMemory()
}
