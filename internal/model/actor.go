package model

import "github.com/google/uuid"

type ActorRole string

const (
	ActorRoleAdmin   ActorRole = "admin"
	ActorRoleDoctor  ActorRole = "doctor"
	ActorRolePatient ActorRole = "patient"
)

// Actor identifies the authenticated caller of a core operation. The core
// trusts the (role, id) pair handed to it; how it was authenticated is the
// edge's concern.
type Actor struct {
	Role ActorRole `json:"role"`
	ID   uuid.UUID `json:"id"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == ActorRoleAdmin
}

// OwnsDoctor reports whether the actor is the doctor with the given id.
func (a Actor) OwnsDoctor(doctorID uuid.UUID) bool {
	return a.Role == ActorRoleDoctor && a.ID == doctorID
}

// OwnsPatient reports whether the actor is the patient with the given id.
func (a Actor) OwnsPatient(patientID uuid.UUID) bool {
	return a.Role == ActorRolePatient && a.ID == patientID
}
