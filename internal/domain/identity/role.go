// internal/domain/identity/role.go
package identity

import "strings"

// Role is one capability an account holds. A single account can hold several
// roles at once; ActiveRole selects the navigation/UI context.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleTailor   Role = "tailor"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes a stored role string. Unknown values return ok=false
// so a corrupted document cannot inject an arbitrary capability.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleTailor:
		return RoleTailor, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// NormalizeRoles drops unknown values and duplicates, keeping first-seen order.
func NormalizeRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	seen := map[Role]struct{}{}
	for _, s := range raw {
		r, ok := ParseRole(s)
		if !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
