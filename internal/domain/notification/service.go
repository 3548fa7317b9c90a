package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

const maxTypeLen = 50

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a notification. A nil user id makes it a system notice that
// no account lists or marks read.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Notification, error) {
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return nil, apperr.InvalidInput("type is required")
	}
	if len(typ) > maxTypeLen {
		return nil, apperr.InvalidInput("type must be at most %d characters", maxTypeLen)
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return nil, apperr.InvalidInput("payload must be valid JSON")
	}
	n := &Notification{UserID: in.UserID, Type: typ, Payload: in.Payload}
	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, db.ErrForeignKeyAbsent) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "user not found")
		}
		return nil, apperr.Internal(err, "create notification")
	}
	return n, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	out, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list notifications")
	}
	if out == nil {
		out = []*Notification{}
	}
	return out, total, nil
}

// MarkRead flags the notification read. Only its recipient or an admin may.
func (s *Service) MarkRead(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("notification not found")
		}
		return nil, apperr.Internal(err, "load notification")
	}
	if !actor.IsAdmin() && (n.UserID == nil || *n.UserID != actor.AccountID) {
		return nil, apperr.Forbidden("notification belongs to another user")
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("notification not found")
		}
		return nil, apperr.Internal(err, "mark notification read")
	}
	n.IsRead = true
	return n, nil
}

func (s *Service) PurgeOwner(ctx context.Context, owner identity.Owner) error {
	return s.repo.DeleteByUser(ctx, owner.AccountID)
}
