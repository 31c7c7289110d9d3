// Package links declares and implements the store of anonymous share tokens.
package links

import (
	"context"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Repository keeps at most one token per storage key.
type Repository interface {
	// IssueOrReuse stores candidate as the token of fileKey unless one already
	// exists, and returns whichever token is stored afterwards.
	IssueOrReuse(ctx context.Context, fileKey, candidate string) (string, error)

	// Resolve looks a token up. Unknown tokens yield common.ErrorNotFound.
	Resolve(ctx context.Context, token string) (*models.ShareToken, error)

	// DeleteByFileKey drops the token of fileKey, if any.
	DeleteByFileKey(ctx context.Context, fileKey string) (int64, error)
}
