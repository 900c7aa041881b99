package featureflag

// DefaultFlags returns the known feature flags and their default settings.
//
// These are intended to represent broad, user-visible areas of the product.
// As new major features are added, append to this list.
func DefaultFlags() []FeatureFlag {
	return []FeatureFlag{
		{
			Key:           "member_directory",
			Description:   "Member directory (list, profiles, CSV import)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
		{
			Key:           "catalog",
			Description:   "Course catalog (categories, subcategories)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "events",
			Description:   "Event scheduling (definitions, recurring instances)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "registrations",
			Description:   "Event registrations and attendance",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "messaging",
			Description:   "Member-to-member messaging",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: true,
		},
		{
			Key:           "social_posts",
			Description:   "Social media post scheduling",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
		{
			Key:           "analytics",
			Description:   "Analytics dashboards (course and member stats)",
			EnabledAdmin:  true,
			EnabledStaff:  true,
			EnabledMember: false,
		},
		{
			Key:          "ics_feed",
			Description:  "Published ICS calendar feed",
			EnabledAdmin: true,
			EnabledStaff: true,
			// The feed is token-less and meant for calendar apps, so it is
			// also served to members.
			EnabledMember: true,
		},
	}
}
