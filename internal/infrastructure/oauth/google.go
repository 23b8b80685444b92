package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
)

const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var ErrNotConfigured = errors.New("google sign-in is not configured")

// GoogleProvider runs the authorization-code flow against Google and reads
// the OpenID userinfo.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: DefaultUserInfoURL,
	}
}

// WithEndpoints points the provider at other servers, for tests.
func (p *GoogleProvider) WithEndpoints(ep oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	p.config.Endpoint = ep
	p.userInfoURL = userInfoURL
	return p
}

func (p *GoogleProvider) Configured() bool {
	return p != nil && p.config.ClientID != "" && p.config.ClientSecret != ""
}

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades the callback code for a token and fetches the profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (application.GoogleProfile, error) {
	if !p.Configured() {
		return application.GoogleProfile{}, ErrNotConfigured
	}
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return application.GoogleProfile{}, fmt.Errorf("oauth: exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return application.GoogleProfile{}, err
	}
	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return application.GoogleProfile{}, fmt.Errorf("oauth: userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return application.GoogleProfile{}, fmt.Errorf("oauth: userinfo returned status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return application.GoogleProfile{}, fmt.Errorf("oauth: decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return application.GoogleProfile{}, errors.New("oauth: userinfo without sub")
	}
	return application.GoogleProfile{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
