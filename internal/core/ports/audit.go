package ports

import (
	"context"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

// AuditRecorder accepts auth events for asynchronous persistence. Record
// must never block the calling request.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// AuditRepository persists the auth audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
