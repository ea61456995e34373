package sendaccess

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sendvault/sendvault/internal/send"
)

// Resolver classifies a send identifier into an authentication method.
// "Not found" never escapes it: unknown identifiers get a decoy method
// from the enumeration-protection selector, so callers cannot branch on
// existence.
type Resolver struct {
	repo     send.Repository
	selector Selector
	logger   *slog.Logger
}

// NewResolver builds a resolver over the Send repository and selector.
func NewResolver(repo send.Repository, selector Selector, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, selector: selector, logger: logger}
}

// Resolve returns the real method when a record exists, otherwise a
// synthesized decoy. Storage failures also take the decoy path: the
// response shape must not reveal infrastructure state.
func (r *Resolver) Resolve(ctx context.Context, id send.ID) send.AuthenticationMethod {
	method, err := r.repo.FindMethod(ctx, id)
	if err != nil {
		if !errors.Is(err, send.ErrNotFound) {
			r.logger.Warn("send method lookup failed", "error", err)
		}
		return r.selector.Method(id)
	}
	return method
}
