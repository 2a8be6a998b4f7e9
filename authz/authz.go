package authz

import "strings"

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

type Action string

const (
	// ActionBypassGating lets staff open any topic or quiz without enrollment
	// or prerequisites. Their quiz attempts are always practice.
	ActionBypassGating Action = "bypass-gating"
	ActionAuthorCourse Action = "author-course"
	ActionLearn        Action = "learn"
)

// Actor is an already-authenticated caller.
type Actor struct {
	ID   string
	Role Role
}

func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	}
	return RoleStudent
}

var grants = map[Role]map[Action]bool{
	RoleStudent: {ActionLearn: true},
	RoleManager: {ActionLearn: true, ActionBypassGating: true, ActionAuthorCourse: true},
	RoleAdmin:   {ActionLearn: true, ActionBypassGating: true, ActionAuthorCourse: true},
}

// Can is the single role predicate shared by the resolver, the attempt policy
// and the HTTP layer.
func Can(actor Actor, action Action) bool {
	if actor.ID == "" {
		return false
	}
	return grants[actor.Role][action]
}

func IsStaff(actor Actor) bool {
	return Can(actor, ActionBypassGating)
}
