package cqrs

import "github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"

// GetProfileQuery fetches a user merged with its role subtype record.
type GetProfileQuery struct {
	UserID int64
}

// ListUsersByRoleQuery fetches every user holding Role, each with its subtype record.
type ListUsersByRoleQuery struct {
	Role models.Role
}
