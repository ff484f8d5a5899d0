package cqrs

type RegisterPatientCommand struct {
	HealthcareNumber string
	Name             string
	Email            string
	Password         string
	Phone            string
	DateOfBirth      string
}

type CreateSpecialistCommand struct {
	Name           string
	Email          string
	Password       string
	WorkingID      string
	Specialization string
}

type CreateStaffCommand struct {
	Name       string
	Email      string
	Password   string
	WorkingID  string
	Department string
}

// UpdateProfileCommand replaces the four mutable profile fields. Role,
// password hash, status and subtype data are not reachable from here.
type UpdateProfileCommand struct {
	UserID       int64
	Name         string
	Email        string
	Phone        string
	ProfileImage string
}

type DeleteUserCommand struct {
	UserID int64
}

type LoginCommand struct {
	Email    string
	Password string
}
