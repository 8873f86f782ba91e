package api

import (
	"context"

	"github.com/prevozkop/backend/session"
)

// ctxAdminID returns the admin logged in on the request's session.
func ctxAdminID(ctx context.Context) (uint, bool) {
	return session.AdminID(ctx)
}

// ctxIsAdmin reports whether drafts may be shown to the caller.
func ctxIsAdmin(ctx context.Context) bool {
	_, ok := ctxAdminID(ctx)
	return ok
}
