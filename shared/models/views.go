package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProfileView is the read projection of a user merged with its subtype
// record. It never exposes PasswordHash.
type ProfileView struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	RoleData     RoleData  `json:"roleData"`
}

// UnmarshalJSON decodes roleData into the concrete type selected by Role,
// so cached views round-trip through Redis.
func (v *ProfileView) UnmarshalJSON(data []byte) error {
	type alias ProfileView
	aux := struct {
		*alias
		RoleData json.RawMessage `json:"roleData"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	rd, err := NewRoleData(v.Role)
	if err != nil {
		return err
	}
	if len(aux.RoleData) > 0 && string(aux.RoleData) != "null" {
		if err := json.Unmarshal(aux.RoleData, rd); err != nil {
			return fmt.Errorf("decode roleData for %s: %w", v.Role, err)
		}
	}
	v.RoleData = rd
	return nil
}

// NewProfileView merges a user with its subtype record.
func NewProfileView(u *User, data RoleData) *ProfileView {
	return &ProfileView{
		UserID:       u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		RoleData:     data,
	}
}

// LoginView is returned by a successful login. Token is only set when a
// session issuer is configured.
type LoginView struct {
	UserID int64  `json:"user_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Token  string `json:"token,omitempty"`
}
