package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
	vo "github.com/oksasatya/go-ddd-user-credentials/internal/domain/valueobject"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newUser(t *testing.T, policy RegistrationPolicy) *User {
	t.Helper()
	u, ev, err := RegisterUser(RegisterInput{
		Email:    "  Jane@Example.com",
		Name:     "Jane",
		Password: "Str0ng!Pass",
		Policy:   policy,
	}, t0)
	require.NoError(t, err)
	require.NotNil(t, ev)
	return u
}

func TestRegisterUser_Defaults(t *testing.T) {
	u, ev, err := RegisterUser(RegisterInput{Email: "jane@example.com", Name: "Jane", Password: "Str0ng!Pass"}, t0)
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID())
	assert.Equal(t, vo.RoleUser, u.Role())
	assert.False(t, u.IsEmailVerified())
	assert.False(t, u.IsActive())
	assert.True(t, u.HasPassword())
	assert.Equal(t, t0, u.CreatedAt())
	assert.Equal(t, t0, u.UpdatedAt())

	reg, ok := ev.(event.UserRegistered)
	require.True(t, ok)
	assert.Equal(t, event.NameUserRegistered, reg.Name())
	assert.Equal(t, u.ID(), reg.AggregateID())
	assert.Equal(t, "jane@example.com", reg.Email)
	assert.False(t, reg.SSO)
}

func TestRegisterUser_Policy(t *testing.T) {
	u := newUser(t, RegistrationPolicy{SkipEmailVerification: true, AutoActivateUsers: true})
	assert.True(t, u.IsEmailVerified())
	assert.True(t, u.IsActive())
	assert.True(t, u.CanLogin())
}

func TestRegisterUser_GoogleOnly(t *testing.T) {
	u, ev, err := RegisterUser(RegisterInput{
		Email:     "g@example.com",
		Name:      "G",
		GoogleID:  "google-123",
		AvatarURL: "https://img/a.png",
		Policy:    RegistrationPolicy{AutoActivateUsers: true},
	}, t0)
	require.NoError(t, err)
	assert.False(t, u.HasPassword())
	assert.True(t, u.IsEmailVerified())
	assert.Equal(t, "google-123", u.GoogleID())
	assert.Equal(t, "https://img/a.png", u.AvatarURL())
	assert.True(t, ev.(event.UserRegistered).SSO)
}

func TestLinkGoogleAccount_RefusesDifferentIdentity(t *testing.T) {
	u, _, err := RegisterUser(RegisterInput{
		Email:    "g@example.com",
		Name:     "G",
		GoogleID: "google-123",
		Policy:   RegistrationPolicy{AutoActivateUsers: true},
	}, t0)
	require.NoError(t, err)
	before := u.Snapshot()

	ev, err := u.LinkGoogleAccount("google-456", nil, t0.Add(time.Minute))
	assert.ErrorIs(t, err, domainerror.ErrInvariant)
	assert.Nil(t, ev)
	assert.Equal(t, before, u.Snapshot())

	ev, err = u.LinkGoogleAccount("google-123", nil, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, event.NameGoogleAccountLinked, ev.Name())
	assert.Equal(t, "google-123", u.GoogleID())
}

func TestRegisterUser_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"bad email", RegisterInput{Email: "nope", Name: "x", Password: "Str0ng!Pass"}, "email"},
		{"empty name", RegisterInput{Email: "a@b.com", Name: " ", Password: "Str0ng!Pass"}, "name"},
		{"bad role", RegisterInput{Email: "a@b.com", Name: "x", Password: "Str0ng!Pass", Role: "ROOT"}, "role"},
		{"weak password", RegisterInput{Email: "a@b.com", Name: "x", Password: "alllowercase1!"}, "password"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u, ev, err := RegisterUser(c.in, t0)
			assert.Nil(t, u)
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, domainerror.ErrValidation)
			assert.Equal(t, c.field, domainerror.FieldOf(err))
		})
	}

	_, _, err := RegisterUser(RegisterInput{Email: "a@b.com", Name: "x"}, t0)
	assert.ErrorIs(t, err, domainerror.ErrInvariant)
}

func TestVerifyEmail_HappyPathThenExhausted(t *testing.T) {
	u := newUser(t, RegistrationPolicy{AutoActivateUsers: true})
	issuedAt := t0.Add(time.Minute)

	token, ev, err := u.InitiateEmailVerification(issuedAt)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, issuedAt.Add(EmailVerificationTTL), ev.(event.EmailVerificationRequested).ExpiresAt)
	assert.Equal(t, issuedAt, u.UpdatedAt())
	assert.False(t, u.CanLogin())

	ok, vev := u.VerifyEmail(token, issuedAt.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, event.NameEmailVerified, vev.Name())
	assert.True(t, u.IsEmailVerified())
	assert.True(t, u.CanLogin())
	_, pending := u.EmailVerificationExpiry()
	assert.False(t, pending)

	ok, vev = u.VerifyEmail(token, issuedAt.Add(2*time.Hour))
	assert.False(t, ok)
	assert.Nil(t, vev)
}

func TestVerifyEmail_ExpiryBoundary(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	token, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)

	ok, _ := u.VerifyEmail(token, t0.Add(24*time.Hour+time.Millisecond))
	assert.False(t, ok)
	assert.False(t, u.IsEmailVerified())
	assert.Equal(t, t0, u.UpdatedAt())

	ok, _ = u.VerifyEmail(token, t0.Add(24*time.Hour-time.Millisecond))
	assert.True(t, ok)
	assert.True(t, u.IsEmailVerified())
}

func TestVerifyEmail_FailsClosed(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})

	ok, ev := u.VerifyEmail("anything", t0)
	assert.False(t, ok)
	assert.Nil(t, ev)

	token, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)
	for _, bad := range []string{"", "short", token[:63], token + "0"} {
		ok, _ := u.VerifyEmail(bad, t0)
		assert.False(t, ok, bad)
	}
	_, pending := u.EmailVerificationExpiry()
	assert.True(t, pending)
}

func TestInitiateEmailVerification_ReplacesPendingToken(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	first, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)
	second, _, err := u.InitiateEmailVerification(t0.Add(time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	ok, _ := u.VerifyEmail(first, t0.Add(time.Minute))
	assert.False(t, ok)
	ok, _ = u.VerifyEmail(second, t0.Add(time.Minute))
	assert.True(t, ok)
}

func TestMarkEmailAsVerified(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	_, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)

	ev := u.MarkEmailAsVerified(t0.Add(time.Hour))
	assert.Equal(t, event.NameEmailVerified, ev.Name())
	assert.True(t, u.IsEmailVerified())
	s := u.Snapshot()
	assert.Nil(t, s.EmailVerificationToken)
	assert.Nil(t, s.EmailVerificationExpiry)
}

func TestResetPassword(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	token, ev, err := u.InitiatePasswordReset(t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), ev.(event.PasswordResetRequested).ExpiresAt)

	ok, rev, err := u.ResetPassword(token, "NewPass1!", t0.Add(30*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, event.NamePasswordReset, rev.Name())
	assert.True(t, u.VerifyPassword("NewPass1!"))
	assert.False(t, u.VerifyPassword("Str0ng!Pass"))
	assert.False(t, u.HasPendingPasswordReset())

	ok, _, err = u.ResetPassword(token, "Other1!pass", t0.Add(31*time.Minute))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResetPassword_StaleTokenLeavesHashUnchanged(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	before := u.Snapshot().PasswordHash
	token, _, err := u.InitiatePasswordReset(t0)
	require.NoError(t, err)

	ok, ev, err := u.ResetPassword(token, "NewPass1!", t0.Add(time.Hour+time.Millisecond))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ev)
	assert.Equal(t, *before, *u.Snapshot().PasswordHash)
	assert.True(t, u.VerifyPassword("Str0ng!Pass"))
}

func TestResetPassword_WeakPasswordKeepsToken(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	token, _, err := u.InitiatePasswordReset(t0)
	require.NoError(t, err)

	ok, _, err := u.ResetPassword(token, "weak", t0.Add(time.Minute))
	assert.False(t, ok)
	assert.ErrorIs(t, err, domainerror.ErrValidation)
	assert.True(t, u.HasPendingPasswordReset())
	assert.True(t, u.VerifyPassword("Str0ng!Pass"))
	assert.Equal(t, t0, u.UpdatedAt())
}

func TestClearPasswordResetToken(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	token, _, err := u.InitiatePasswordReset(t0)
	require.NoError(t, err)

	u.ClearPasswordResetToken(t0.Add(time.Minute))
	assert.False(t, u.HasPendingPasswordReset())
	assert.Equal(t, t0.Add(time.Minute), u.UpdatedAt())

	ok, _, err := u.ResetPassword(token, "NewPass1!", t0.Add(2*time.Minute))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestChangePassword(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})

	_, err := u.ChangePassword("wrong", "NewPass1!", t0)
	assert.ErrorIs(t, err, vo.ErrPasswordMismatch)

	_, err = u.ChangePassword("Str0ng!Pass", "weak", t0)
	assert.ErrorIs(t, err, domainerror.ErrValidation)

	ev, err := u.ChangePassword("Str0ng!Pass", "NewPass1!", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, event.NamePasswordChanged, ev.Name())
	assert.True(t, u.VerifyPassword("NewPass1!"))
}

func TestVerifyPassword_NoPasswordSet(t *testing.T) {
	u, _, err := RegisterUser(RegisterInput{Email: "g@example.com", Name: "G", GoogleID: "gid"}, t0)
	require.NoError(t, err)
	assert.False(t, u.VerifyPassword(""))
	assert.False(t, u.VerifyPassword("Str0ng!Pass"))
	assert.ErrorIs(t, u.ComparePassword("x"), vo.ErrPasswordMismatch)
}

func TestCanLogin(t *testing.T) {
	u := newUser(t, RegistrationPolicy{SkipEmailVerification: true})
	assert.False(t, u.CanLogin(), "inactive")

	u.Activate(t0)
	assert.True(t, u.CanLogin())

	u.Deactivate(t0)
	assert.False(t, u.CanLogin())
}

func TestCanLogin_GoogleLinkedLegacyState(t *testing.T) {
	gid := "google-1"
	hash := mustHash(t)
	u, err := Rehydrate(UserSnapshot{
		ID:              "0f8fad5b-d9cb-469f-a165-70867728950e",
		Email:           "legacy@example.com",
		Name:            "Legacy",
		PasswordHash:    &hash,
		Role:            "ROLE_USER",
		GoogleID:        &gid,
		IsEmailVerified: false,
		IsActive:        true,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	})
	require.NoError(t, err)
	assert.True(t, u.CanLogin())
}

func TestRecordLogin(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	assert.Nil(t, u.LastLoginAt())

	at := t0.Add(5 * time.Minute)
	ev := u.RecordLogin(at)
	assert.Equal(t, event.NameUserLoggedIn, ev.Name())
	require.NotNil(t, u.LastLoginAt())
	assert.Equal(t, at, *u.LastLoginAt())
	assert.Equal(t, at, u.UpdatedAt())
}

func TestLinkGoogleAccount(t *testing.T) {
	u := newUser(t, RegistrationPolicy{AutoActivateUsers: true})
	_, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)

	_, err = u.LinkGoogleAccount("", nil, t0)
	assert.ErrorIs(t, err, domainerror.ErrValidation)

	avatar := "https://img/g.png"
	ev, err := u.LinkGoogleAccount("gid-9", &avatar, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "gid-9", ev.(event.GoogleAccountLinked).GoogleID)
	assert.True(t, u.IsEmailVerified())
	assert.Equal(t, avatar, u.AvatarURL())
	assert.True(t, u.CanLogin())
	_, pending := u.EmailVerificationExpiry()
	assert.False(t, pending)
}

func TestUnlinkGoogleAccount(t *testing.T) {
	sso, _, err := RegisterUser(RegisterInput{Email: "g@example.com", Name: "G", GoogleID: "gid"}, t0)
	require.NoError(t, err)
	_, err = sso.UnlinkGoogleAccount(t0.Add(time.Minute))
	var ie *domainerror.InvariantError
	assert.True(t, errors.As(err, &ie))
	assert.Equal(t, "gid", sso.GoogleID())
	assert.Equal(t, t0, sso.UpdatedAt())

	u := newUser(t, RegistrationPolicy{})
	_, err = u.LinkGoogleAccount("gid-2", nil, t0)
	require.NoError(t, err)
	ev, err := u.UnlinkGoogleAccount(t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, event.NameGoogleAccountUnlinked, ev.Name())
	assert.False(t, u.HasGoogleAccount())
	assert.Equal(t, "", u.GoogleID())
}

func TestChangeEmail_ResetsVerification(t *testing.T) {
	u := newUser(t, RegistrationPolicy{SkipEmailVerification: true})
	_, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)

	ev, err := u.ChangeEmail("JANE@example.com", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = u.ChangeEmail("new@example.com", t0.Add(time.Minute))
	require.NoError(t, err)
	changed := ev.(event.EmailChanged)
	assert.Equal(t, "jane@example.com", changed.Previous)
	assert.Equal(t, "new@example.com", changed.Current)
	assert.False(t, u.IsEmailVerified())
	_, pending := u.EmailVerificationExpiry()
	assert.False(t, pending)

	_, err = u.ChangeEmail("broken", t0)
	assert.ErrorIs(t, err, domainerror.ErrValidation)
}

func TestChangeRole(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})

	ev, err := u.ChangeRole(vo.RoleAdmin, t0.Add(time.Minute))
	require.NoError(t, err)
	rc := ev.(event.RoleChanged)
	assert.Equal(t, "ROLE_USER", rc.Previous)
	assert.Equal(t, "ROLE_ADMIN", rc.Current)

	ev, err = u.ChangeRole(vo.RoleAdmin, t0.Add(2*time.Minute))
	assert.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, t0.Add(time.Minute), u.UpdatedAt())

	_, err = u.ChangeRole(vo.Role("ROLE_ROOT"), t0)
	assert.ErrorIs(t, err, domainerror.ErrValidation)
}

func TestActivateDeactivate_NoopWhenUnchanged(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	assert.Nil(t, u.Deactivate(t0.Add(time.Minute)))
	assert.Equal(t, t0, u.UpdatedAt())

	assert.Equal(t, event.NameUserActivated, u.Activate(t0.Add(time.Minute)).Name())
	assert.Nil(t, u.Activate(t0.Add(2*time.Minute)))
	assert.Equal(t, event.NameUserDeactivated, u.Deactivate(t0.Add(3*time.Minute)).Name())
}

func TestRenameAndAvatar(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	require.NoError(t, u.Rename("  Jane Q ", t0.Add(time.Minute)))
	assert.Equal(t, "Jane Q", u.Name())
	assert.ErrorIs(t, u.Rename("", t0), domainerror.ErrValidation)

	u.ChangeAvatar("https://img/x.png", t0.Add(2*time.Minute))
	assert.Equal(t, "https://img/x.png", u.AvatarURL())
	u.ChangeAvatar("", t0.Add(3*time.Minute))
	assert.Equal(t, "", u.AvatarURL())
	assert.Equal(t, t0.Add(3*time.Minute), u.UpdatedAt())
}

func TestSnapshotRehydrateRoundTrip(t *testing.T) {
	u := newUser(t, RegistrationPolicy{AutoActivateUsers: true})
	token, _, err := u.InitiateEmailVerification(t0)
	require.NoError(t, err)
	_, _, err = u.InitiatePasswordReset(t0)
	require.NoError(t, err)
	u.RecordLogin(t0.Add(time.Second))

	back, err := Rehydrate(u.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, u.Snapshot(), back.Snapshot())

	ok, _ := back.VerifyEmail(token, t0.Add(time.Hour))
	assert.True(t, ok)
	assert.True(t, back.VerifyPassword("Str0ng!Pass"))
}

func TestRehydrate_RejectsBrokenRecords(t *testing.T) {
	token := "abc"
	base := func() UserSnapshot {
		return UserSnapshot{
			ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
			Email:     "a@b.com",
			Name:      "A",
			Role:      "ROLE_USER",
			CreatedAt: t0,
			UpdatedAt: t0,
		}
	}

	s := base()
	s.ID = "not-a-uuid"
	_, err := Rehydrate(s)
	assert.ErrorIs(t, err, domainerror.ErrValidation)

	s = base()
	s.Role = "ROLE_ROOT"
	_, err = Rehydrate(s)
	assert.ErrorIs(t, err, domainerror.ErrValidation)

	s = base()
	s.EmailVerificationToken = &token
	_, err = Rehydrate(s)
	assert.ErrorIs(t, err, domainerror.ErrInvariant)

	s = base()
	exp := t0
	s.PasswordResetExpiry = &exp
	_, err = Rehydrate(s)
	assert.ErrorIs(t, err, domainerror.ErrInvariant)

	empty := ""
	s = base()
	s.PasswordHash = &empty
	_, err = Rehydrate(s)
	assert.ErrorIs(t, err, domainerror.ErrValidation)
}

func TestEventCollectDropsNil(t *testing.T) {
	u := newUser(t, RegistrationPolicy{})
	events := event.Collect(u.Deactivate(t0), u.Activate(t0), nil)
	require.Len(t, events, 1)
	assert.Equal(t, event.NameUserActivated, events[0].Name())
}

func mustHash(t *testing.T) string {
	t.Helper()
	p, err := vo.CreatePassword("Str0ng!Pass")
	require.NoError(t, err)
	return p.Hash()
}
