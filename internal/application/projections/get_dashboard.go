package projections

import (
	"context"
	"time"

	"parish/internal/adapters/storage/member"
	"parish/internal/domain/account"
	domainMember "parish/internal/domain/member"
	"parish/internal/domain/registration"
)

// DashboardMessageStore defines the message store interface needed by the
// dashboard projection.
type DashboardMessageStore interface {
	CountUnread(ctx context.Context, receiverID string) (int, error)
}

// DashboardMemberStore defines the member store interface needed by the
// dashboard projection.
type DashboardMemberStore interface {
	GetByEmail(ctx context.Context, tenantID, email string) (domainMember.Member, error)
}

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	TenantID     string
	Role         string // admin, staff, member
	AccountEmail string // used to resolve the member record for member role
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	UpcomingDeps GetUpcomingEventsDeps
	MemberStore  MemberStore
	MessageStore DashboardMessageStore
	MemberLookup DashboardMemberStore
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Role string

	// Shared
	UpcomingEvents []UpcomingEventResult

	// Admin / staff
	ActiveMembers int

	// Member
	UnreadCount     int
	MyRegistrations int
	MemberID        string
}

// QueryGetDashboard aggregates dashboard data based on the user's role.
// PRE: TenantID and Role are set
// POST: Role-appropriate sections populated; lookups that fail leave their
// section zeroed rather than failing the whole dashboard
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps, now time.Time) (DashboardResult, error) {
	result := DashboardResult{Role: query.Role}

	// All roles: the next two weeks of events
	upcoming, err := QueryGetUpcomingEvents(ctx, GetUpcomingEventsQuery{
		TenantID: query.TenantID,
		From:     now,
		Days:     14,
	}, deps.UpcomingDeps)
	if err == nil {
		result.UpcomingEvents = upcoming
	}

	switch query.Role {
	case account.RoleAdmin, account.RoleStaff:
		members, err := deps.MemberStore.List(ctx, member.ListFilter{
			TenantID: query.TenantID,
			Status:   domainMember.StatusActive,
			Limit:    1000,
		})
		if err == nil {
			result.ActiveMembers = len(members)
		}

	case account.RoleMember:
		if query.AccountEmail == "" || deps.MemberLookup == nil {
			break
		}
		m, err := deps.MemberLookup.GetByEmail(ctx, query.TenantID, query.AccountEmail)
		if err != nil {
			break
		}
		result.MemberID = m.ID
		if deps.MessageStore != nil {
			if n, err := deps.MessageStore.CountUnread(ctx, m.ID); err == nil {
				result.UnreadCount = n
			}
		}
		if deps.UpcomingDeps.RegistrationStore != nil {
			regs, err := deps.UpcomingDeps.RegistrationStore.ListByMember(ctx, m.ID)
			if err == nil {
				for _, reg := range regs {
					if reg.Status != registration.StatusCancelled {
						result.MyRegistrations++
					}
				}
			}
		}
	}

	return result, nil
}
