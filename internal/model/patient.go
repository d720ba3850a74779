package model

type Patient struct {
	Base
	Name string `db:"name" json:"name"`

	// Denormalized from the users row on read.
	Email string `db:"email" json:"email"`
}

type UpdatePatientRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type PatientFilters struct {
	SearchTerm string `form:"q"`
}
