package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, name := range []string{"Patient", "Specialist", "Clinic_Staff", "Administrator"} {
		role, err := ParseRole(name)
		require.NoError(t, err)
		assert.Equal(t, Role(name), role)
	}

	_, err := ParseRole("Janitor")
	assert.True(t, errors.Is(err, ErrUnknownRole))

	_, err = ParseRole("")
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestRoleDataMatchesRole(t *testing.T) {
	for _, role := range []Role{RolePatient, RoleSpecialist, RoleClinicStaff, RoleAdministrator} {
		rd, err := NewRoleData(role)
		require.NoError(t, err)
		assert.Equal(t, role, rd.Role())
	}
}

func TestProfileViewJSONKeepsRoleDataType(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	view := NewProfileView(&User{
		ID: 12, Name: "Dr. Rao", Email: "rao@clinic.test", Role: RoleSpecialist,
		Status: StatusActive, CreatedAt: created, PasswordHash: "$2a$10$secret",
	}, &SpecialistData{SpecialistID: 12, WorkingID: "W-77", Specialization: "Endocrinology"})

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"roleData":{"specialist_id":12`)

	var decoded ProfileView
	require.NoError(t, json.Unmarshal(data, &decoded))

	spec, ok := decoded.RoleData.(*SpecialistData)
	require.True(t, ok, "roleData decoded as %T", decoded.RoleData)
	assert.Equal(t, "Endocrinology", spec.Specialization)
	assert.Equal(t, "rao@clinic.test", decoded.Email)
	assert.True(t, created.Equal(decoded.CreatedAt))
}

func TestProfileViewJSONRejectsUnknownRole(t *testing.T) {
	var v ProfileView
	err := json.Unmarshal([]byte(`{"user_id":1,"role":"Janitor","roleData":{}}`), &v)
	assert.True(t, errors.Is(err, ErrUnknownRole))
}
