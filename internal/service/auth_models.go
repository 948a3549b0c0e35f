package service

import (
	"coffeeshop/internal/entity"

	"github.com/google/uuid"
)

type SignupInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
	IPAddress *string
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
}

type VerifyInput struct {
	Email     string
	Code      string
	IPAddress *string
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int64
	RefreshExpiresIn int64
}

type AccessGrant struct {
	AccessToken string
	ExpiresIn   int64
}

// Actor is the authenticated caller, taken from access token claims.
type Actor struct {
	ID   uuid.UUID
	Role entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.UserRoleAdmin
}

// UserPatch carries the fields of a partial profile update. Nil means unchanged.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Password  *string
	Role      *entity.UserRole
}

func (p UserPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Password == nil && p.Role == nil
}
