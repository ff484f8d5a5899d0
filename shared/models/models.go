package models

import (
	"fmt"
	"time"
)

// Role is the closed set of account kinds. Each role owns exactly one
// subtype record type implementing RoleData.
type Role string

const (
	RolePatient       Role = "Patient"
	RoleSpecialist    Role = "Specialist"
	RoleClinicStaff   Role = "Clinic_Staff"
	RoleAdministrator Role = "Administrator"
)

const StatusActive = "Active"

// ParseRole converts a stored or requested role name into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePatient, RoleSpecialist, RoleClinicStaff, RoleAdministrator:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

type User struct {
	ID           int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleData is the per-role subtype record stored one-to-one with a User.
// The unexported marker keeps the set of implementations closed.
type RoleData interface {
	Role() Role
	roleData()
}

type PatientData struct {
	PatientID        int64  `json:"patient_id"`
	HealthcareNumber string `json:"healthcare_number"`
	DateOfBirth      string `json:"date_of_birth"`
}

type SpecialistData struct {
	SpecialistID   int64  `json:"specialist_id"`
	WorkingID      string `json:"working_id"`
	Specialization string `json:"specialization"`
}

type StaffData struct {
	StaffID    int64  `json:"staff_id"`
	WorkingID  string `json:"working_id"`
	Department string `json:"department"`
}

type AdministratorData struct {
	AdministratorID int64 `json:"administrator_id"`
}

func (*PatientData) Role() Role       { return RolePatient }
func (*SpecialistData) Role() Role    { return RoleSpecialist }
func (*StaffData) Role() Role         { return RoleClinicStaff }
func (*AdministratorData) Role() Role { return RoleAdministrator }

func (*PatientData) roleData()       {}
func (*SpecialistData) roleData()    {}
func (*StaffData) roleData()         {}
func (*AdministratorData) roleData() {}

// NewRoleData returns an empty subtype record for role.
func NewRoleData(role Role) (RoleData, error) {
	switch role {
	case RolePatient:
		return &PatientData{}, nil
	case RoleSpecialist:
		return &SpecialistData{}, nil
	case RoleClinicStaff:
		return &StaffData{}, nil
	case RoleAdministrator:
		return &AdministratorData{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, string(role))
	}
}
