package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	repo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// Deps collects what Service needs. Repo, Tokens and Sessions are required;
// the rest fall back to no-ops or report ErrStorageUnavailable.
type Deps struct {
	Repo          repo.UserRepository
	Tokens        TokenIssuer
	Sessions      SessionStore
	Events        EventPublisher
	Notifier      Notifier
	Indexer       UserIndexer
	Avatars       AvatarStore
	Clock         Clock
	Logger        *logrus.Logger
	Policy        entity.RegistrationPolicy
	NotifyOnLogin bool
}

type Service struct {
	Repo          repo.UserRepository
	Tokens        TokenIssuer
	Sessions      SessionStore
	Events        EventPublisher
	Notifier      Notifier
	Indexer       UserIndexer
	Avatars       AvatarStore
	Clock         Clock
	Logger        *logrus.Logger
	Policy        entity.RegistrationPolicy
	NotifyOnLogin bool
}

func NewService(d Deps) *Service {
	s := &Service{
		Repo:          d.Repo,
		Tokens:        d.Tokens,
		Sessions:      d.Sessions,
		Events:        d.Events,
		Notifier:      d.Notifier,
		Indexer:       d.Indexer,
		Avatars:       d.Avatars,
		Clock:         d.Clock,
		Logger:        d.Logger,
		Policy:        d.Policy,
		NotifyOnLogin: d.NotifyOnLogin,
	}
	if s.Events == nil {
		s.Events = noopPublisher{}
	}
	if s.Notifier == nil {
		s.Notifier = noopNotifier{}
	}
	if s.Clock == nil {
		s.Clock = SystemClock
	}
	return s
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RequestMeta is what the transport knows about the caller.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
	Meta     RequestMeta
}

type LoginResult struct {
	Profile Profile
	Tokens  TokenPair
}

// Register creates a ROLE_USER account. When verification is required the
// token goes out by mail, never in the response.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	now := s.Clock.Now()
	u, registered, err := entity.RegisterUser(entity.RegisterInput{
		Email:    in.Email,
		Name:     in.Name,
		Password: in.Password,
		Policy:   s.Policy,
	}, now)
	if err != nil {
		return nil, err
	}

	var (
		token     string
		requested event.Event
	)
	if !u.IsEmailVerified() {
		if token, requested, err = u.InitiateEmailVerification(now); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		helpers.LogError(s.Logger, "create user failed", err, nil)
		return nil, err
	}

	if token != "" {
		s.sendVerification(ctx, u, token)
	}
	s.publish(ctx, registered, requested)
	s.index(ctx, u)

	p := ToProfile(u)
	return &p, nil
}

// compareDecoy keeps failed logins for unknown or password-less accounts as
// slow as a wrong password.
var compareDecoy = vo.CompareDecoy

// Login answers ErrInvalidCredentials for an unknown email, a missing
// password and a wrong password alike.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.Repo.GetByEmail(ctx, vo.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			_ = compareDecoy(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.HasPassword() {
		_ = compareDecoy(in.Password)
		return nil, ErrInvalidCredentials
	}
	if err := u.ComparePassword(in.Password); err != nil {
		if !errors.Is(err, vo.ErrPasswordMismatch) {
			helpers.LogWarn(s.Logger, "password compare failed", err, logrus.Fields{"user_id": u.ID()})
		}
		return nil, ErrInvalidCredentials
	}
	if !u.CanLogin() {
		return nil, ErrLoginNotAllowed
	}
	return s.completeLogin(ctx, u, in.Meta, nil)
}

// completeLogin records the login, persists u and opens a session. extra are
// events produced earlier in the same request.
func (s *Service) completeLogin(ctx context.Context, u *entity.User, meta RequestMeta, extra []event.Event) (*LoginResult, error) {
	now := s.Clock.Now()
	loggedIn := u.RecordLogin(now)
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, s.mapWriteError(err)
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, append(extra, loggedIn)...)
	s.index(ctx, u)
	if s.NotifyOnLogin {
		s.notify(ctx, Notification{
			Kind:      NotifyLogin,
			To:        u.Email().String(),
			Name:      u.Name(),
			At:        now,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
		})
	}
	return &LoginResult{Profile: ToProfile(u), Tokens: pair}, nil
}

// IssueTokens opens a new session for u, replacing any previous one.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID(), u.Role().String(), sid)
	if err != nil {
		helpers.LogError(s.Logger, "generate tokens failed", err, logrus.Fields{"user_id": u.ID()})
		return TokenPair{}, err
	}
	err = s.Sessions.Save(ctx, Session{
		UserID:    u.ID(),
		SessionID: sid,
		Role:      u.Role().String(),
		Email:     u.Email().String(),
		Name:      u.Name(),
		AvatarURL: u.AvatarURL(),
		CreatedAt: s.Clock.Now(),
	})
	if err != nil {
		helpers.LogError(s.Logger, "save session failed", err, logrus.Fields{"user_id": u.ID()})
		return TokenPair{}, err
	}
	return pair, nil
}

// Refresh rotates the session id and both tokens. A refresh token from a
// rotated-out session is rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.Tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	sess, err := s.Sessions.Get(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", err
	}
	if sess == nil || sess.SessionID != claims.SessionID {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			s.endSession(ctx, claims.UserID)
			return TokenPair{}, "", ErrInvalidCredentials
		}
		helpers.LogError(s.Logger, "load user for refresh failed", err, logrus.Fields{"user_id": claims.UserID})
		return TokenPair{}, "", err
	}
	if !u.CanLogin() {
		s.endSession(ctx, u.ID())
		return TokenPair{}, "", ErrLoginNotAllowed
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID(), nil
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.Sessions.Delete(ctx, userID)
}

func (s *Service) signPair(userID, role, sid string) (TokenPair, error) {
	access, aexp, err := s.Tokens.GenerateAccessToken(userID, role, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.Tokens.GenerateRefreshToken(userID, role, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) load(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) mapWriteError(err error) error {
	switch {
	case errors.Is(err, repo.ErrEmailTaken):
		return ErrEmailAlreadyExists
	case errors.Is(err, repo.ErrGoogleIDTaken):
		return ErrGoogleAccountInUse
	case errors.Is(err, repo.ErrUserNotFound):
		return ErrUserNotFound
	}
	helpers.LogError(s.Logger, "persist user failed", err, nil)
	return err
}

// publish is best effort: a broker outage must not undo a committed change.
func (s *Service) publish(ctx context.Context, events ...event.Event) {
	evs := event.Collect(events...)
	if len(evs) == 0 {
		return
	}
	if err := s.Events.Publish(ctx, evs...); err != nil {
		helpers.LogWarn(s.Logger, "publish events failed", err, logrus.Fields{"count": len(evs)})
	}
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if err := s.Notifier.Notify(ctx, n); err != nil {
		helpers.LogWarn(s.Logger, "notification failed", err, logrus.Fields{"kind": string(n.Kind)})
	}
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, ToBackofficeUser(u)); err != nil {
		helpers.LogWarn(s.Logger, "index user failed", err, logrus.Fields{"user_id": u.ID()})
	}
}

// endSession drops userID's session; a failure only means the tokens live
// until they expire.
func (s *Service) endSession(ctx context.Context, userID string) {
	if err := s.Sessions.Delete(ctx, userID); err != nil {
		helpers.LogWarn(s.Logger, "drop session failed", err, logrus.Fields{"user_id": userID})
	}
}

func (s *Service) syncSession(ctx context.Context, u *entity.User) {
	if err := s.Sessions.UpdateProfile(ctx, u.ID(), u.Name(), u.AvatarURL()); err != nil {
		helpers.LogWarn(s.Logger, "session sync failed", err, logrus.Fields{"user_id": u.ID()})
	}
}

func (s *Service) sendVerification(ctx context.Context, u *entity.User, token string) {
	exp, _ := u.EmailVerificationExpiry()
	s.notify(ctx, Notification{
		Kind:      NotifyVerifyEmail,
		To:        u.Email().String(),
		Name:      u.Name(),
		Token:     token,
		ExpiresAt: exp,
		At:        s.Clock.Now(),
	})
}
