package models

import "fmt"

// Scope identifies whose token or mapping is addressed: a bare user or a
// (user, persona) pair. PersonaNum == nil means user scope.
type Scope struct {
	UserID     int64
	PersonaNum *int
}

func UserScope(userID int64) Scope {
	return Scope{UserID: userID}
}

func PersonaScope(userID int64, personaNum int) Scope {
	n := personaNum
	return Scope{UserID: userID, PersonaNum: &n}
}

// IsPersona reports whether the scope addresses a persona.
func (s Scope) IsPersona() bool {
	return s.PersonaNum != nil
}

// CacheKey is the redis key for the scope's effective token.
func (s Scope) CacheKey() string {
	if s.PersonaNum != nil {
		return fmt.Sprintf("token:user:%d:persona:%d", s.UserID, *s.PersonaNum)
	}
	return fmt.Sprintf("token:user:%d", s.UserID)
}

func (s Scope) String() string {
	if s.PersonaNum != nil {
		return fmt.Sprintf("user=%d persona=%d", s.UserID, *s.PersonaNum)
	}
	return fmt.Sprintf("user=%d", s.UserID)
}
