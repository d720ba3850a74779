package model

import "github.com/google/uuid"

// Doctor shares its id with the backing user row, as does Patient.
type Doctor struct {
	Base
	DepartmentID    uuid.UUID `db:"department_id" json:"department_id"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`

	// Denormalized from the users/departments rows on read.
	Name       string `db:"name" json:"name"`
	Email      string `db:"email" json:"email"`
	Department string `db:"department_name" json:"department"`
}

type CreateDoctorRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	Department      string `json:"department" binding:"required"`
	ExperienceYears int    `json:"experience_years" binding:"gte=0"`
}

type UpdateDoctorRequest struct {
	Name            *string    `json:"name"`
	Email           *string    `json:"email" binding:"omitempty,email"`
	DepartmentID    *uuid.UUID `json:"department_id"`
	ExperienceYears *int       `json:"experience_years" binding:"omitempty,gte=0"`
}

type DoctorFilters struct {
	SearchTerm   string    `form:"q"`
	DepartmentID uuid.UUID `form:"department_id"`
}
