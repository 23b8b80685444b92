package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	"github.com/oksasatya/go-ddd-user-credentials/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

const strongPassword = "Str0ng!Pass"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSessions struct {
	mu   sync.Mutex
	data map[string]Session
}

func newFakeSessions() *fakeSessions { return &fakeSessions{data: map[string]Session{}} }

func (f *fakeSessions) Save(_ context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[s.UserID] = s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, userID string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessions) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, userID)
	return nil
}

func (f *fakeSessions) UpdateProfile(_ context.Context, userID, name, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.data[userID]; ok {
		s.Name, s.AvatarURL = name, avatarURL
		f.data[userID] = s
	}
	return nil
}

type recordingPublisher struct {
	events []event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...event.Event) error {
	p.events = append(p.events, evs...)
	return p.err
}

func (p *recordingPublisher) names() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

type recordingNotifier struct{ sent []Notification }

func (n *recordingNotifier) Notify(_ context.Context, m Notification) error {
	n.sent = append(n.sent, m)
	return nil
}

func (n *recordingNotifier) last(t *testing.T, kind NotificationKind) Notification {
	t.Helper()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i]
		}
	}
	t.Fatalf("no %s notification sent", kind)
	return Notification{}
}

type fakeIndexer struct {
	docs map[string]BackofficeUser
}

func (f *fakeIndexer) Index(_ context.Context, u BackofficeUser) error {
	f.docs[u.ID] = u
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, q string, size int) ([]BackofficeUser, error) {
	out := []BackofficeUser{}
	for _, d := range f.docs {
		if strings.Contains(d.Email, q) || strings.Contains(d.Name, q) {
			out = append(out, d)
		}
		if len(out) == size {
			break
		}
	}
	return out, nil
}

type fakeAvatars struct{ err error }

func (f fakeAvatars) Upload(_ context.Context, userID, filename, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://cdn.example.com/avatars/" + userID + "/" + filename, nil
}

var errBroker = errors.New("broker down")

type harness struct {
	svc      *Service
	repo     *memory.UserRepository
	sessions *fakeSessions
	events   *recordingPublisher
	notes    *recordingNotifier
	index    *fakeIndexer
	clock    *fakeClock
	jwt      *helpers.JWTManager
}

func newHarness(t *testing.T, policy entity.RegistrationPolicy) *harness {
	t.Helper()
	h := &harness{
		repo:     memory.NewUserRepository(),
		sessions: newFakeSessions(),
		events:   &recordingPublisher{},
		notes:    &recordingNotifier{},
		index:    &fakeIndexer{docs: map[string]BackofficeUser{}},
		clock:    &fakeClock{now: t0},
	}
	h.jwt = helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour).
		WithClock(func() time.Time { return h.clock.now })
	h.svc = NewService(Deps{
		Repo:     h.repo,
		Tokens:   h.jwt,
		Sessions: h.sessions,
		Events:   h.events,
		Notifier: h.notes,
		Indexer:  h.index,
		Avatars:  fakeAvatars{},
		Clock:    h.clock,
		Policy:   policy,
	})
	return h
}

// seed stores a ready-to-login user with the given role.
func (h *harness) seed(t *testing.T, email, role string) *entity.User {
	t.Helper()
	u, _, err := entity.RegisterUser(entity.RegisterInput{
		Email:    email,
		Name:     "Seeded",
		Password: strongPassword,
		Role:     role,
		Policy:   entity.RegistrationPolicy{SkipEmailVerification: true, AutoActivateUsers: true},
	}, h.clock.now)
	require.NoError(t, err)
	require.NoError(t, h.repo.Create(context.Background(), u))
	return u
}
