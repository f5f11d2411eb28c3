package remote

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/labportal/server/internal/utils/requestctx"
)

// CallerTokens authorizes upstream calls. The caller's own bearer token is
// forwarded when the context carries one; otherwise the service's
// client-credentials token is used, if configured.
type CallerTokens struct {
	service oauth2.TokenSource
}

// NewCallerTokens creates a token provider. cc may be nil, in which case calls
// made outside a request go out unauthenticated.
func NewCallerTokens(cc *clientcredentials.Config) *CallerTokens {
	t := &CallerTokens{}
	if cc != nil && cc.ClientID != "" && cc.TokenURL != "" {
		t.service = oauth2.ReuseTokenSource(nil, cc.TokenSource(context.Background()))
	}
	return t
}

// Token returns the token to send, or nil when there is none.
func (t *CallerTokens) Token(ctx context.Context) (*oauth2.Token, error) {
	if tok := requestctx.BearerToken(ctx); tok != "" {
		return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
	}
	if t.service == nil {
		return nil, nil
	}
	return t.service.Token()
}
