package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
)

// UserRepository keeps snapshots rather than live aggregates, so callers never
// share mutable state with the store.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]entity.UserSnapshot
	byEmail map[string]string // email -> userID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]entity.UserSnapshot),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	s := u.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[s.Email]; exists {
		return repository.ErrEmailTaken
	}
	if s.GoogleID != nil && r.googleTaken(*s.GoogleID, s.ID) {
		return repository.ErrGoogleIDTaken
	}
	r.byID[s.ID] = s
	r.byEmail[s.Email] = s.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	s, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return entity.Rehydrate(s)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	return r.find(func(s entity.UserSnapshot) bool {
		return s.GoogleID != nil && *s.GoogleID == googleID
	})
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return r.find(func(s entity.UserSnapshot) bool {
		return s.EmailVerificationToken != nil && *s.EmailVerificationToken == token
	})
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return r.find(func(s entity.UserSnapshot) bool {
		return s.PasswordResetToken != nil && *s.PasswordResetToken == token
	})
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	s := u.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[s.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if old.Email != s.Email {
		if _, exists := r.byEmail[s.Email]; exists {
			return repository.ErrEmailTaken
		}
	}
	if s.GoogleID != nil && r.googleTaken(*s.GoogleID, s.ID) {
		return repository.ErrGoogleIDTaken
	}
	delete(r.byEmail, old.Email)
	r.byID[s.ID] = s
	r.byEmail[s.Email] = s.ID
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, s.Email)
	return nil
}

// List orders newest first, like the postgres implementation.
func (r *UserRepository) List(ctx context.Context, f repository.ListFilter) ([]*entity.User, int, error) {
	f = f.Normalized()

	r.mu.RLock()
	matched := make([]entity.UserSnapshot, 0, len(r.byID))
	for _, s := range r.byID {
		if matches(s, f) {
			matched = append(matched, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Offset >= total {
		return []*entity.User{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}

	out := make([]*entity.User, 0, end-f.Offset)
	for _, s := range matched[f.Offset:end] {
		u, err := entity.Rehydrate(s)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, nil
}

func (r *UserRepository) find(pred func(entity.UserSnapshot) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byID {
		if pred(s) {
			return entity.Rehydrate(s)
		}
	}
	return nil, repository.ErrUserNotFound
}

// googleTaken must be called with mu held.
func (r *UserRepository) googleTaken(googleID, ownerID string) bool {
	for id, s := range r.byID {
		if id != ownerID && s.GoogleID != nil && *s.GoogleID == googleID {
			return true
		}
	}
	return false
}

func matches(s entity.UserSnapshot, f repository.ListFilter) bool {
	if f.Role != "" && s.Role != f.Role {
		return false
	}
	if f.Active != nil && s.IsActive != *f.Active {
		return false
	}
	if f.Verified != nil && s.IsEmailVerified != *f.Verified {
		return false
	}
	return true
}

var _ repository.UserRepository = (*UserRepository)(nil)
