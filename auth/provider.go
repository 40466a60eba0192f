// Package auth obtains the Microsoft Live token the bot logs in with. Tokens are cached on disk and
// refreshed when they expire. Without a usable cache the device code flow is used: the operator opens a
// link and enters a code.
package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"golang.org/x/oauth2"
)

const (
	// DefaultClientID is the client ID of the game on Windows 10.
	DefaultClientID = "0000000048183522"
	// DefaultScope is the scope requested by the game.
	DefaultScope = "service::user.auth.xboxlive.com::MBI_SSL"

	defaultDeviceAuthURL = "https://login.live.com/oauth20_connect.srf"
	defaultTokenURL      = "https://login.live.com/oauth20_token.srf"
	defaultDeviceTimeout = time.Minute * 15
)

// Config configures a Provider. Empty fields take the defaults of the Live endpoints.
type Config struct {
	ClientID      string
	Scope         string
	DeviceAuthURL string
	TokenURL      string
	// EntitlementURL, if set, is queried to make sure the account owns the game.
	EntitlementURL string
	// CachePath is the file the token is cached in.
	CachePath string
	// DeviceTimeout bounds how long the operator has to complete the device code flow.
	DeviceTimeout time.Duration
}

// Provider hands out Live tokens, caching them in a file.
type Provider struct {
	conf   Config
	oauth  *oauth2.Config
	client *http.Client
	log    *logrus.Logger
}

// NewProvider ...
func NewProvider(conf Config, log *logrus.Logger) *Provider {
	if conf.ClientID == "" {
		conf.ClientID = DefaultClientID
	}
	if conf.Scope == "" {
		conf.Scope = DefaultScope
	}
	if conf.DeviceAuthURL == "" {
		conf.DeviceAuthURL = defaultDeviceAuthURL
	}
	if conf.TokenURL == "" {
		conf.TokenURL = defaultTokenURL
	}
	if conf.DeviceTimeout <= 0 {
		conf.DeviceTimeout = defaultDeviceTimeout
	}
	return &Provider{
		conf: conf,
		oauth: &oauth2.Config{
			ClientID: conf.ClientID,
			Scopes:   []string{conf.Scope},
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: conf.DeviceAuthURL,
				TokenURL:      conf.TokenURL,
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		client: http.DefaultClient,
		log:    log,
	}
}

// Token returns a valid token. A cached token is used as long as it is valid and refreshed once it
// expired. If there is no cached token or it cannot be refreshed, the device code flow is started. The
// token obtained is written back to the cache.
func (p *Provider) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := p.cached(ctx)
	if err != nil {
		p.log.Infof("no usable cached token: %v", err)
		if tok, err = p.DeviceFlow(ctx); err != nil {
			return nil, err
		}
	}

	if p.conf.EntitlementURL != "" {
		if err := CheckEntitlement(ctx, p.client, p.conf.EntitlementURL, tok.AccessToken); err != nil {
			return nil, err
		}
	}
	if p.conf.CachePath != "" {
		if err := SaveCache(p.conf.CachePath, tok); err != nil {
			p.log.Warnf("failed to cache the token: %v", err)
		}
	}
	return tok, nil
}

func (p *Provider) cached(ctx context.Context) (*oauth2.Token, error) {
	if p.conf.CachePath == "" {
		return nil, os.ErrNotExist
	}
	tok, err := LoadCache(p.conf.CachePath)
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("cached token expired")
	}
	p.log.Info("refreshing the cached token")
	tok, err = p.oauth.TokenSource(p.context(ctx), tok).Token()
	if err != nil {
		return nil, berror.Auth("refresh token: %w", err)
	}
	return tok, nil
}

// DeviceFlow obtains a new token through the device code flow. The operator is asked, through the log,
// to open a link and enter a code.
func (p *Provider) DeviceFlow(ctx context.Context) (*oauth2.Token, error) {
	ctx = p.context(ctx)
	da, err := p.oauth.DeviceAuth(ctx, oauth2.SetAuthURLParam("response_type", "device_code"))
	if err != nil {
		return nil, berror.Auth("request device code: %w", err)
	}
	p.log.Infof("open %s and enter the code %s to log in", da.VerificationURI, da.UserCode)

	ctx, cancel := context.WithTimeout(ctx, p.conf.DeviceTimeout)
	defer cancel()
	tok, err := p.oauth.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, berror.Auth("device code login: %w", err)
	}
	p.log.Info("logged in")
	return tok, nil
}

// TokenSource returns a token source starting at tok that refreshes the token when it expires and caches
// every new token.
func (p *Provider) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return &cachingSource{p: p, src: p.oauth.TokenSource(p.context(ctx), tok), last: tok}
}

func (p *Provider) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

type cachingSource struct {
	p   *Provider
	src oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *cachingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if s.p.conf.CachePath != "" {
			if err := SaveCache(s.p.conf.CachePath, tok); err != nil {
				s.p.log.Warnf("failed to cache the refreshed token: %v", err)
			}
		}
	}
	return tok, nil
}
