package service

import "github.com/google/uuid"

// CanModifyUser allows admins to modify anyone and users to modify themselves.
func CanModifyUser(actor Actor, targetID uuid.UUID) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.ID != uuid.Nil && actor.ID == targetID
}
