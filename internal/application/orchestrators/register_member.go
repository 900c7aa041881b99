package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/member"

	"github.com/google/uuid"
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	Save(ctx context.Context, m member.Member) error
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByEmail(ctx context.Context, tenantID, email string) (member.Member, error)
}

// RegisterMemberInput carries input for the orchestrator.
type RegisterMemberInput struct {
	TenantID  string
	Email     string
	Name      string
	Phone     string
	Role      string
	AccountID string // optional link to a login account
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	MemberStore MemberStore
	Now         func() time.Time
}

// ExecuteRegisterMember coordinates member registration.
// PRE: Valid email, non-empty name, valid role, existing tenant
// POST: Member created with ID, Status=active
// INVARIANT: Email must be unique within the tenant
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (string, error) {
	if input.TenantID == "" {
		return "", errors.New("tenant ID cannot be empty")
	}
	if input.Name == "" {
		return "", errors.New("name cannot be empty")
	}
	if input.Email == "" {
		return "", errors.New("email cannot be empty")
	}

	if _, err := deps.MemberStore.GetByEmail(ctx, input.TenantID, input.Email); err == nil {
		return "", errors.New("a member with this email already exists")
	}

	role := input.Role
	if role == "" {
		role = member.RoleMember
	}

	m := member.Member{
		ID:        uuid.New().String(),
		TenantID:  input.TenantID,
		AccountID: input.AccountID,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      role,
		Status:    member.StatusActive,
		JoinedAt:  deps.Now(),
	}

	if err := m.Validate(); err != nil {
		return "", err
	}

	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return "", err
	}

	slog.Info("member_event", "event", "member_registered", "member_id", m.ID, "tenant_id", m.TenantID, "role", m.Role)
	return m.ID, nil
}
