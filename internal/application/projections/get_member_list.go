package projections

import (
	"context"

	"parish/internal/adapters/storage/member"
	"parish/internal/domain/registration"
)

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	TenantID string
	Role     string
	Status   string
	Limit    int
	Offset   int
}

// MemberListEntry represents one member row in the directory listing.
type MemberListEntry struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Role     string
	Status   string
	Upcoming int // non-cancelled registrations held by the member
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members []MemberListEntry
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore       MemberStore
	RegistrationStore RegistrationStore // optional: nil skips registration counts
}

// QueryGetMemberList retrieves the member directory with registration counts.
// PRE: TenantID is non-empty
// POST: Returns members filtered by role/status, paged by Limit/Offset
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	members, err := deps.MemberStore.List(ctx, member.ListFilter{
		TenantID: query.TenantID,
		Role:     query.Role,
		Status:   query.Status,
		Limit:    limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return GetMemberListResult{}, err
	}

	var result []MemberListEntry
	for _, m := range members {
		entry := MemberListEntry{
			ID:     m.ID,
			Name:   m.Name,
			Email:  m.Email,
			Phone:  m.Phone,
			Role:   m.Role,
			Status: m.Status,
		}
		if deps.RegistrationStore != nil {
			regs, err := deps.RegistrationStore.ListByMember(ctx, m.ID)
			if err == nil {
				for _, reg := range regs {
					if reg.Status != registration.StatusCancelled {
						entry.Upcoming++
					}
				}
			}
		}
		result = append(result, entry)
	}

	return GetMemberListResult{Members: result}, nil
}
