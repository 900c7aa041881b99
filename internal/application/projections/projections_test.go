package projections

import (
	"context"
	"testing"
	"time"

	"parish/internal/adapters/storage/member"
	domainEvent "parish/internal/domain/event"
	domainMember "parish/internal/domain/member"
	domainRegistration "parish/internal/domain/registration"
)

// --- shared mock stores ---

type mockProjectionMemberStore struct {
	members []domainMember.Member
}

// GetByID returns a seeded member by ID.
// PRE: id is non-empty
// POST: Returns the seeded member or an error
func (m *mockProjectionMemberStore) GetByID(_ context.Context, id string) (domainMember.Member, error) {
	for _, mem := range m.members {
		if mem.ID == id {
			return mem, nil
		}
	}
	return domainMember.Member{}, context.DeadlineExceeded
}

// GetByEmail returns a seeded member by email within the tenant.
// PRE: email is non-empty
// POST: Returns the seeded member or an error
func (m *mockProjectionMemberStore) GetByEmail(_ context.Context, tenantID, email string) (domainMember.Member, error) {
	for _, mem := range m.members {
		if mem.TenantID == tenantID && mem.Email == email {
			return mem, nil
		}
	}
	return domainMember.Member{}, context.DeadlineExceeded
}

// List returns seeded members matching the filter.
// PRE: filter is valid
// POST: Returns the filtered members
func (m *mockProjectionMemberStore) List(_ context.Context, filter member.ListFilter) ([]domainMember.Member, error) {
	var out []domainMember.Member
	for _, mem := range m.members {
		if filter.TenantID != "" && mem.TenantID != filter.TenantID {
			continue
		}
		if filter.Role != "" && mem.Role != filter.Role {
			continue
		}
		if filter.Status != "" && mem.Status != filter.Status {
			continue
		}
		out = append(out, mem)
	}
	return out, nil
}

type mockProjectionDefinitionStore struct {
	definitions map[string]domainEvent.Definition
}

// GetByID returns a seeded definition.
// PRE: id is non-empty
// POST: Returns the definition or an error
func (m *mockProjectionDefinitionStore) GetByID(_ context.Context, id string) (domainEvent.Definition, error) {
	d, ok := m.definitions[id]
	if !ok {
		return domainEvent.Definition{}, context.DeadlineExceeded
	}
	return d, nil
}

// ListByTenant returns all seeded definitions for the tenant.
// PRE: tenantID is non-empty
// POST: Returns the tenant's definitions
func (m *mockProjectionDefinitionStore) ListByTenant(_ context.Context, tenantID string) ([]domainEvent.Definition, error) {
	var out []domainEvent.Definition
	for _, d := range m.definitions {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockProjectionInstanceStore struct {
	instances []domainEvent.Instance
}

// ListByParent returns instances belonging to the definition.
// PRE: parentEventID is non-empty
// POST: Soft-deleted instances included only when includeDeleted
func (m *mockProjectionInstanceStore) ListByParent(_ context.Context, parentEventID string, includeDeleted bool) ([]domainEvent.Instance, error) {
	var out []domainEvent.Instance
	for _, inst := range m.instances {
		if inst.ParentEventID != parentEventID {
			continue
		}
		if inst.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// ListByDateRange returns instances whose start date falls in [from, to].
// PRE: from and to are YYYY-MM-DD
// POST: Returns matching instances for the tenant
func (m *mockProjectionInstanceStore) ListByDateRange(_ context.Context, tenantID, from, to string) ([]domainEvent.Instance, error) {
	var out []domainEvent.Instance
	for _, inst := range m.instances {
		if inst.TenantID != tenantID {
			continue
		}
		d := inst.StartDate.Format("2006-01-02")
		if d >= from && d <= to {
			out = append(out, inst)
		}
	}
	return out, nil
}

type mockProjectionRegistrationStore struct {
	registrations []domainRegistration.Registration
}

// ListByInstance returns registrations for the instance.
// PRE: instanceID is non-empty
// POST: Returns matching registrations
func (m *mockProjectionRegistrationStore) ListByInstance(_ context.Context, instanceID string) ([]domainRegistration.Registration, error) {
	var out []domainRegistration.Registration
	for _, r := range m.registrations {
		if r.InstanceID == instanceID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListByMember returns registrations held by the member.
// PRE: memberID is non-empty
// POST: Returns matching registrations
func (m *mockProjectionRegistrationStore) ListByMember(_ context.Context, memberID string) ([]domainRegistration.Registration, error) {
	var out []domainRegistration.Registration
	for _, r := range m.registrations {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	return out, nil
}

func projDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- upcoming events ---

// TestQueryGetUpcomingEvents_WindowAndOrder verifies windowing, soft-delete
// exclusion, and sort order.
func TestQueryGetUpcomingEvents_WindowAndOrder(t *testing.T) {
	instances := &mockProjectionInstanceStore{instances: []domainEvent.Instance{
		{ID: "def-1-2", ParentEventID: "def-1", TenantID: "t1", Title: "Sunday Service", StartDate: projDate(2025, 6, 15), EndDate: projDate(2025, 6, 15)},
		{ID: "def-1-1", ParentEventID: "def-1", TenantID: "t1", Title: "Sunday Service", StartDate: projDate(2025, 6, 8), EndDate: projDate(2025, 6, 8)},
		{ID: "def-2-1", ParentEventID: "def-2", TenantID: "t1", Title: "Deleted Gathering", StartDate: projDate(2025, 6, 10), EndDate: projDate(2025, 6, 10), IsDeleted: true},
		{ID: "def-3-1", ParentEventID: "def-3", TenantID: "t1", Title: "Too Far Out", StartDate: projDate(2025, 8, 1), EndDate: projDate(2025, 8, 1)},
		{ID: "def-4-1", ParentEventID: "def-4", TenantID: "t2", Title: "Other Tenant", StartDate: projDate(2025, 6, 9), EndDate: projDate(2025, 6, 9)},
	}}
	regs := &mockProjectionRegistrationStore{registrations: []domainRegistration.Registration{
		{ID: "r1", InstanceID: "def-1-1", MemberID: "m1", Status: domainRegistration.StatusRegistered},
		{ID: "r2", InstanceID: "def-1-1", MemberID: "m2", Status: domainRegistration.StatusCancelled},
	}}

	results, err := QueryGetUpcomingEvents(context.Background(), GetUpcomingEventsQuery{
		TenantID: "t1",
		From:     projDate(2025, 6, 7),
		Days:     14,
	}, GetUpcomingEventsDeps{InstanceStore: instances, RegistrationStore: regs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results=%d want 2: %+v", len(results), results)
	}
	if results[0].InstanceID != "def-1-1" || results[1].InstanceID != "def-1-2" {
		t.Errorf("order=%s,%s want def-1-1,def-1-2", results[0].InstanceID, results[1].InstanceID)
	}
	if results[0].Registrations != 1 {
		t.Errorf("registrations=%d want 1 (cancelled excluded)", results[0].Registrations)
	}
}

// --- member list ---

// TestQueryGetMemberList_FiltersAndCounts verifies role filtering and
// registration counts.
func TestQueryGetMemberList_FiltersAndCounts(t *testing.T) {
	members := &mockProjectionMemberStore{members: []domainMember.Member{
		{ID: "m1", TenantID: "t1", Name: "Alice", Role: domainMember.RoleVolunteer, Status: domainMember.StatusActive},
		{ID: "m2", TenantID: "t1", Name: "Bob", Role: domainMember.RoleMember, Status: domainMember.StatusActive},
	}}
	regs := &mockProjectionRegistrationStore{registrations: []domainRegistration.Registration{
		{ID: "r1", InstanceID: "i1", MemberID: "m1", Status: domainRegistration.StatusRegistered},
		{ID: "r2", InstanceID: "i2", MemberID: "m1", Status: domainRegistration.StatusCancelled},
	}}

	result, err := QueryGetMemberList(context.Background(), GetMemberListQuery{
		TenantID: "t1",
		Role:     domainMember.RoleVolunteer,
	}, GetMemberListDeps{MemberStore: members, RegistrationStore: regs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Members) != 1 {
		t.Fatalf("members=%d want 1", len(result.Members))
	}
	if result.Members[0].Name != "Alice" || result.Members[0].Upcoming != 1 {
		t.Errorf("entry=%+v want Alice with 1 upcoming", result.Members[0])
	}
}

// --- event analytics ---

// TestQueryGetEventAnalytics_Aggregates verifies per-instance and aggregate
// counts with deleted instances shown but excluded from totals.
func TestQueryGetEventAnalytics_Aggregates(t *testing.T) {
	defs := &mockProjectionDefinitionStore{definitions: map[string]domainEvent.Definition{
		"def-1": {ID: "def-1", TenantID: "t1", Title: "Youth Night"},
	}}
	instances := &mockProjectionInstanceStore{instances: []domainEvent.Instance{
		{ID: "def-1-1", ParentEventID: "def-1", TenantID: "t1", InstanceNumber: 1, StartDate: projDate(2025, 6, 6)},
		{ID: "def-1-2", ParentEventID: "def-1", TenantID: "t1", InstanceNumber: 2, StartDate: projDate(2025, 6, 13), IsDeleted: true},
	}}
	regs := &mockProjectionRegistrationStore{registrations: []domainRegistration.Registration{
		{ID: "r1", InstanceID: "def-1-1", MemberID: "m1", Status: domainRegistration.StatusAttended},
		{ID: "r2", InstanceID: "def-1-1", MemberID: "m2", Status: domainRegistration.StatusRegistered},
		{ID: "r3", InstanceID: "def-1-1", MemberID: "m3", Status: domainRegistration.StatusCancelled},
		{ID: "r4", InstanceID: "def-1-2", MemberID: "m4", Status: domainRegistration.StatusRegistered},
	}}

	result, err := QueryGetEventAnalytics(context.Background(), GetEventAnalyticsQuery{
		DefinitionID: "def-1",
	}, GetEventAnalyticsDeps{DefinitionStore: defs, InstanceStore: instances, RegistrationStore: regs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalInstances != 2 || result.ActiveInstances != 1 {
		t.Errorf("instances total=%d active=%d want 2/1", result.TotalInstances, result.ActiveInstances)
	}
	if result.TotalRegistered != 2 || result.TotalAttended != 1 {
		t.Errorf("registered=%d attended=%d want 2/1", result.TotalRegistered, result.TotalAttended)
	}
	if result.AttendanceRate != 0.5 {
		t.Errorf("rate=%v want 0.5", result.AttendanceRate)
	}
	first := result.Instances[0]
	if first.Registered != 2 || first.Attended != 1 || first.Cancelled != 1 {
		t.Errorf("first instance=%+v", first)
	}
}

// --- dashboard ---

// TestQueryGetDashboard_MemberRole verifies member sections resolve through
// the account email.
func TestQueryGetDashboard_MemberRole(t *testing.T) {
	members := &mockProjectionMemberStore{members: []domainMember.Member{
		{ID: "m1", TenantID: "t1", Name: "Alice", Email: "alice@test.com", Role: domainMember.RoleMember, Status: domainMember.StatusActive},
	}}
	instances := &mockProjectionInstanceStore{instances: []domainEvent.Instance{
		{ID: "def-1-1", ParentEventID: "def-1", TenantID: "t1", Title: "Service", StartDate: projDate(2025, 6, 8), EndDate: projDate(2025, 6, 8)},
	}}
	regs := &mockProjectionRegistrationStore{registrations: []domainRegistration.Registration{
		{ID: "r1", InstanceID: "def-1-1", MemberID: "m1", Status: domainRegistration.StatusRegistered},
	}}
	msgs := &mockDashboardMessageStore{unread: map[string]int{"m1": 3}}

	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{
		TenantID:     "t1",
		Role:         "member",
		AccountEmail: "alice@test.com",
	}, GetDashboardDeps{
		UpcomingDeps: GetUpcomingEventsDeps{InstanceStore: instances, RegistrationStore: regs},
		MemberStore:  members,
		MessageStore: msgs,
		MemberLookup: members,
	}, projDate(2025, 6, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MemberID != "m1" {
		t.Errorf("member_id=%q want m1", result.MemberID)
	}
	if result.UnreadCount != 3 {
		t.Errorf("unread=%d want 3", result.UnreadCount)
	}
	if result.MyRegistrations != 1 {
		t.Errorf("my_registrations=%d want 1", result.MyRegistrations)
	}
	if len(result.UpcomingEvents) != 1 {
		t.Errorf("upcoming=%d want 1", len(result.UpcomingEvents))
	}
}

// TestQueryGetDashboard_AdminRole verifies the active member count section.
func TestQueryGetDashboard_AdminRole(t *testing.T) {
	members := &mockProjectionMemberStore{members: []domainMember.Member{
		{ID: "m1", TenantID: "t1", Status: domainMember.StatusActive},
		{ID: "m2", TenantID: "t1", Status: domainMember.StatusArchived},
	}}
	instances := &mockProjectionInstanceStore{}

	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{
		TenantID: "t1",
		Role:     "admin",
	}, GetDashboardDeps{
		UpcomingDeps: GetUpcomingEventsDeps{InstanceStore: instances},
		MemberStore:  members,
	}, projDate(2025, 6, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ActiveMembers != 1 {
		t.Errorf("active_members=%d want 1", result.ActiveMembers)
	}
}

type mockDashboardMessageStore struct {
	unread map[string]int
}

// CountUnread returns the seeded unread count.
// PRE: receiverID is non-empty
// POST: Returns the seeded count
func (m *mockDashboardMessageStore) CountUnread(_ context.Context, receiverID string) (int, error) {
	return m.unread[receiverID], nil
}
