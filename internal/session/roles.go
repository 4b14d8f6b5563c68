package session

// Role is the kind of login behind a session.
type Role string

const (
	RoleNone         Role = "none"
	RoleWorker       Role = "worker"
	RoleMember       Role = "member"
	RoleAdmin        Role = "admin"
	RoleSuperAdmin   Role = "superadmin"
	RoleSocietyAdmin Role = "societyadmin"
)

// Section is a group of routes shown to some roles only.
type Section string

const (
	SectionManagement Section = "management"
	SectionSociety    Section = "society"
	SectionPortal     Section = "portal"
	SectionMember     Section = "member"
	SectionAccounts   Section = "accounts"
)

var visibility = map[Role][]Section{
	RoleAdmin:        {SectionManagement},
	RoleSuperAdmin:   {SectionManagement, SectionSociety, SectionAccounts},
	RoleSocietyAdmin: {SectionSociety},
	RoleWorker:       {SectionPortal},
	RoleMember:       {SectionMember},
}

func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleWorker, RoleMember, RoleAdmin, RoleSuperAdmin, RoleSocietyAdmin:
		return r
	default:
		return RoleNone
	}
}

// Can reports whether the role may open the section.
func (r Role) Can(s Section) bool {
	for _, allowed := range visibility[r] {
		if allowed == s {
			return true
		}
	}
	return false
}

// Sections lists what the role may open, for clients building navigation.
func (r Role) Sections() []Section {
	out := make([]Section, len(visibility[r]))
	copy(out, visibility[r])
	return out
}
