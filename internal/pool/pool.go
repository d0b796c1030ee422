// Package pool manages the set of verified credential sessions for one run
// and the round-robin rotation between them when the active credential gets
// throttled.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/auth"
	"github.com/seokit/gsc-indexer/internal/gsc"
)

// ErrNoValidCredentials is returned when no candidate credential passes
// both token exchange and the site ownership check.
var ErrNoValidCredentials = errors.New("no credential has access to the site")

// Verifier proves a token can read the target site and returns the
// canonical property form the API knows it under.
type Verifier interface {
	VerifySiteOwnership(ctx context.Context, tok gsc.AccessToken, site string) (string, error)
}

// session pairs a credential with its current bearer token. The token is
// refreshed in place on rotation so concurrent workers observe the new
// token immediately.
type session struct {
	cred   auth.Credential
	bearer string
}

func (s *session) accessToken() gsc.AccessToken {
	return gsc.AccessToken{Identity: s.cred.ClientEmail, Bearer: s.bearer}
}

// Pool holds the surviving sessions and the active round-robin index.
type Pool struct {
	mu       sync.Mutex
	sessions []*session
	active   int
	site     string
	tokens   auth.TokenSource
	logger   *zap.Logger
}

// Build verifies every candidate credential independently against the
// requested site. A candidate that fails token exchange or the ownership
// check is dropped with a warning; the pool errors only when no candidate
// survives. The first successful ownership check fixes the canonical site
// form for the whole run.
func Build(
	ctx context.Context,
	creds []auth.Credential,
	site string,
	tokens auth.TokenSource,
	verifier Verifier,
	logger *zap.Logger,
) (*Pool, error) {
	p := &Pool{tokens: tokens, logger: logger}
	for _, cred := range creds {
		bearer, err := tokens.Token(ctx, cred)
		if err != nil {
			logger.Warn("credential dropped: token exchange failed",
				zap.String("client_email", cred.ClientEmail),
				zap.Error(err),
			)
			continue
		}
		target := site
		if p.site != "" {
			target = p.site
		}
		tok := gsc.AccessToken{Identity: cred.ClientEmail, Bearer: bearer}
		canonical, err := verifier.VerifySiteOwnership(ctx, tok, target)
		if err != nil {
			logger.Warn("credential dropped: no site access",
				zap.String("client_email", cred.ClientEmail),
				zap.Error(err),
			)
			continue
		}
		if p.site == "" {
			p.site = canonical
		}
		p.sessions = append(p.sessions, &session{cred: cred, bearer: bearer})
	}
	if len(p.sessions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidCredentials, site)
	}
	logger.Info("credential pool ready",
		zap.Int("sessions", len(p.sessions)),
		zap.String("site", p.site),
	)
	return p, nil
}

// Size returns the number of verified sessions, which bounds the rotation
// retry budget.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Site returns the canonical site form fixed at build time.
func (p *Pool) Site() string {
	return p.site
}

// Active returns the access token of the currently selected session.
func (p *Pool) Active() gsc.AccessToken {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[p.active].accessToken()
}

// Rotate advances to the next session (wrapping) and refreshes its bearer
// in place, returning the new active token. A session is never removed: a
// credential that is throttled now may have recovered by the next full
// cycle. A failed refresh keeps the previous bearer; the next attempt with
// it will throttle again and rotate onward.
func (p *Pool) Rotate(ctx context.Context) gsc.AccessToken {
	p.mu.Lock()
	p.active = (p.active + 1) % len(p.sessions)
	sess := p.sessions[p.active]
	cred := sess.cred
	p.mu.Unlock()

	bearer, err := p.tokens.Token(ctx, cred)
	if err != nil {
		p.logger.Warn("token refresh failed on rotation",
			zap.String("client_email", cred.ClientEmail),
			zap.Error(err),
		)
		p.mu.Lock()
		defer p.mu.Unlock()
		return sess.accessToken()
	}

	p.mu.Lock()
	sess.bearer = bearer
	p.mu.Unlock()

	p.logger.Debug("rotated credential", zap.String("client_email", cred.ClientEmail))
	return gsc.AccessToken{Identity: cred.ClientEmail, Bearer: bearer}
}
