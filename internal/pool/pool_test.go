package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/auth"
	"github.com/seokit/gsc-indexer/internal/gsc"
)

type fakeTokenSource struct {
	calls   int
	failFor map[string]bool
}

func (f *fakeTokenSource) Token(_ context.Context, cred auth.Credential) (string, error) {
	f.calls++
	if f.failFor[cred.ClientEmail] {
		return "", errors.New("auth rejected")
	}
	return fmt.Sprintf("token-%s-%d", cred.ClientEmail, f.calls), nil
}

type fakeVerifier struct {
	canonical string
	failFor   map[string]bool
	seenSites []string
}

func (f *fakeVerifier) VerifySiteOwnership(_ context.Context, tok gsc.AccessToken, site string) (string, error) {
	f.seenSites = append(f.seenSites, site)
	if f.failFor[tok.Bearer] {
		return "", errors.New("no site access")
	}
	return f.canonical, nil
}

func cred(email string) auth.Credential {
	return auth.Credential{ClientEmail: email, PrivateKey: "key"}
}

func TestBuild_DropsFailingCandidates(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokenSource{failFor: map[string]bool{"bad-auth": true}}
	verifier := &fakeVerifier{
		canonical: "sc-domain:example.com",
		failFor:   map[string]bool{"token-bad-access-2": true},
	}

	p, err := Build(
		context.Background(),
		[]auth.Credential{cred("bad-auth"), cred("bad-access"), cred("good")},
		"example.com",
		tokens,
		verifier,
		zap.NewNop(),
	)
	require.NoError(t, err)
	require.Equal(t, 1, p.Size())
	require.Equal(t, "sc-domain:example.com", p.Site())
}

func TestBuild_FailsWhenPoolEmpty(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokenSource{failFor: map[string]bool{"a": true, "b": true}}
	_, err := Build(
		context.Background(),
		[]auth.Credential{cred("a"), cred("b")},
		"example.com",
		tokens,
		&fakeVerifier{canonical: "sc-domain:example.com"},
		zap.NewNop(),
	)
	require.ErrorIs(t, err, ErrNoValidCredentials)
}

func TestBuild_FirstCanonicalFormWins(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokenSource{}
	verifier := &fakeVerifier{canonical: "https://example.com/"}

	p, err := Build(
		context.Background(),
		[]auth.Credential{cred("a"), cred("b")},
		"example.com",
		tokens,
		verifier,
		zap.NewNop(),
	)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/", p.Site())
	// The second candidate is verified against the canonical form fixed by
	// the first, not the raw user input.
	require.Equal(t, []string{"example.com", "https://example.com/"}, verifier.seenSites)
}

func TestRotate_WrapsAndRefreshesToken(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokenSource{}
	p, err := Build(
		context.Background(),
		[]auth.Credential{cred("a"), cred("b")},
		"example.com",
		tokens,
		&fakeVerifier{canonical: "sc-domain:example.com"},
		zap.NewNop(),
	)
	require.NoError(t, err)

	first := p.Active()
	require.Equal(t, "token-a-1", first.Bearer)
	require.Equal(t, "a", first.Identity)

	second := p.Rotate(context.Background())
	require.Equal(t, "token-b-3", second.Bearer)
	require.Equal(t, "b", second.Identity)
	require.Equal(t, second, p.Active())

	// Wrapping back to the first session refreshes its token in place.
	third := p.Rotate(context.Background())
	require.Equal(t, "token-a-4", third.Bearer)
	require.Equal(t, "a", third.Identity)
	require.Equal(t, third, p.Active())
}

func TestRotate_KeepsOldTokenWhenRefreshFails(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokenSource{}
	p, err := Build(
		context.Background(),
		[]auth.Credential{cred("a"), cred("b")},
		"example.com",
		tokens,
		&fakeVerifier{canonical: "sc-domain:example.com"},
		zap.NewNop(),
	)
	require.NoError(t, err)

	tokens.failFor = map[string]bool{"b": true}
	got := p.Rotate(context.Background())
	require.Equal(t, "token-b-2", got.Bearer, "stale token should be kept when refresh fails")
	require.Equal(t, "b", got.Identity)
	require.Equal(t, 2, p.Size(), "failed refresh must not evict the session")
}
