package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mhasan/skillbridge/internal/apperror"
)

// googleTokenInfoURL is Google's ID-token introspection endpoint. Given a
// raw ID token it returns the decoded claims — or a non-200 if the token is
// invalid, expired, or not a Google token at all.
const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleUser is the verified identity Google asserts for a signed-in user.
// By the time a GoogleUser exists, the ID token's signature, expiry, and
// audience have all been checked — downstream code trusts the email
// unconditionally.
type GoogleUser struct {
	Email     string
	FirstName string
	LastName  string
}

// GoogleProvider verifies Google sign-ins.
//
// Two entry points, one trust decision:
//
//   - VerifyIDToken: a browser-side Google sign-in widget POSTs us the raw
//     ID token (credential) directly.
//   - Exchange: the classic server-side authorization-code flow — we trade
//     the callback code for tokens and pull the ID token out of the result.
//
// Both funnel into the same tokeninfo introspection, and both enforce that
// the token's audience is OUR client id. Without the audience check, an ID
// token minted for any other Google app would log its holder into this one.
type GoogleProvider struct {
	config       *oauth2.Config
	tokenInfoURL string
	client       *http.Client
}

// NewGoogleProvider creates a GoogleProvider with the given OAuth
// credentials. callbackURL must match the redirect URI registered in the
// Google Cloud console exactly.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		tokenInfoURL: googleTokenInfoURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// newGoogleProviderForTest points introspection at a local httptest server.
func newGoogleProviderForTest(clientID, tokenInfoURL string) *GoogleProvider {
	p := NewGoogleProvider(clientID, "test-secret", "http://localhost/callback")
	p.tokenInfoURL = tokenInfoURL
	return p
}

// AuthURL returns the Google authorization URL to redirect the browser to.
// The state parameter is the caller's CSRF nonce and is echoed back on the
// callback.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the authorization-code flow: code → OAuth token →
// verified GoogleUser. Google attaches the ID token to the token response
// as the "id_token" extra field.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.ExternalAuth("Google code exchange failed")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, apperror.ExternalAuth("Google did not return an ID token")
	}

	return p.VerifyIDToken(ctx, rawIDToken)
}

// tokenInfo is the subset of the tokeninfo response we care about.
type tokenInfo struct {
	Audience   string `json:"aud"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// VerifyIDToken introspects a raw Google ID token and returns the verified
// identity.
//
// Google's tokeninfo endpoint does the signature and expiry checks for us —
// an invalid or expired token gets a non-200. The audience check is ours:
// the token must have been minted for this application's client id.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleUser, error) {
	if rawIDToken == "" {
		return nil, apperror.MissingField("credential")
	}

	endpoint := p.tokenInfoURL + "?id_token=" + url.QueryEscape(rawIDToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building tokeninfo request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// Unreachable provider is still an external-verification failure,
		// not an internal error — callers classify on the sentinel.
		return nil, apperror.ExternalAuth("could not reach Google to verify the credential")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.ExternalAuth("Google rejected the ID token")
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperror.ExternalAuth("Google returned an unreadable tokeninfo response")
	}

	if info.Audience != p.config.ClientID {
		return nil, apperror.ExternalAuth("ID token was issued for a different application")
	}
	if info.Email == "" {
		return nil, apperror.ExternalAuth("Google did not provide an email address")
	}

	return &GoogleUser{
		Email:     info.Email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
	}, nil
}
