package auth

// Role is the closed set of account roles. The order matters: teacher
// outranks student, admin outranks both.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var roleLevels = map[Role]int{
	RoleStudent: 1,
	RoleTeacher: 2,
	RoleAdmin:   3,
}

// ParseRole validates a raw claim against the closed role set. Unknown
// values are rejected, never passed through.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleLevels[r]
	return r, ok
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the hierarchy rank, zero for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	level := roleLevels[r]
	return level != 0 && level >= roleLevels[min]
}
