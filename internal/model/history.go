package model

import "github.com/google/uuid"

// HistoryEntry is a clinical record tied one-to-one with a completed
// appointment. Doctor name and department are snapshotted at write time so
// the record survives later doctor edits or deletion.
type HistoryEntry struct {
	Base
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	VisitType     string    `db:"visit_type" json:"visit_type"`
	TestType      string    `db:"test_type" json:"test_type"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Treatment     string    `db:"treatment" json:"treatment"`
	Prescription  string    `db:"prescription" json:"prescription"`
	DoctorName    string    `db:"doctor_name" json:"doctor_name"`
	Department    string    `db:"department" json:"department"`
}

type RecordHistoryRequest struct {
	VisitType    string `json:"visit_type" binding:"required,oneof=consultation follow-up emergency checkup"`
	TestType     string `json:"test_type"`
	Diagnosis    string `json:"diagnosis" binding:"required"`
	Treatment    string `json:"treatment"`
	Prescription string `json:"prescription"`
}
