package templates

import (
	"time"
)

// Branding holds the company fields every email carries.
type Branding struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
	PrivacyURL     string
	UnsubscribeURL string
}

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}
func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }
func WithResetURL(url string) Option  { return func(d *EmailData) { d.ResetURL = url } }
func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the shared fields from b, then applies opts.
func NewBaseEmailData(b Branding, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		AppName:        b.AppName,

		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
		PrivacyURL:     b.PrivacyURL,
		UnsubscribeURL: b.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(b Branding, name, email, verifyURL string, expiresAt time.Time, opts ...Option) map[string]any {
	opts = append([]Option{WithVerifyURL(verifyURL), WithExpiresAt(expiresAt)}, opts...)
	return ToMap(NewBaseEmailData(b, VerifyEmail, name, email, opts...))
}

func NewResetPasswordData(b Branding, name, email, resetURL string, expiresAt time.Time, opts ...Option) map[string]any {
	opts = append([]Option{WithResetURL(resetURL), WithExpiresAt(expiresAt)}, opts...)
	return ToMap(NewBaseEmailData(b, ResetPassword, name, email, opts...))
}

func NewPasswordChangedData(b Branding, name, email string, at time.Time, opts ...Option) map[string]any {
	opts = append([]Option{WithTime(at)}, opts...)
	return ToMap(NewBaseEmailData(b, PasswordChanged, name, email, opts...))
}

func NewLoginNotificationData(b Branding, name, email string, at time.Time, opts ...Option) map[string]any {
	opts = append([]Option{WithTime(at)}, opts...)
	return ToMap(NewBaseEmailData(b, LoginNotification, name, email, opts...))
}
