package common

// StaticRoles is a fixed role table configured at startup. It answers the
// role checks privileged entry points make; membership never changes while
// the node runs.
type StaticRoles map[string][][20]byte

// IsAuthorized reports whether the caller holds the role.
func (r StaticRoles) IsAuthorized(caller [20]byte, role string) bool {
	for _, member := range r[role] {
		if member == caller {
			return true
		}
	}
	return false
}
