package models

import "time"

// Organization is a tenant: a named workspace with role-scoped members
type Organization struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Role selects one of the three membership join tables
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// OrganizationDetails is the serialized organization with its member sets
type OrganizationDetails struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Owners    []UserRef `json:"owners"`
	Admins    []UserRef `json:"admins"`
	Employees []UserRef `json:"employees"`
}

// CreateOrganizationRequest is the payload for POST /organizations
type CreateOrganizationRequest struct {
	Name   string   `json:"name"`
	Owners []string `json:"owners"`
}

// UpdateOrganizationRequest is the payload for PUT /organizations/{id}
type UpdateOrganizationRequest struct {
	Name   string   `json:"name"`
	Owners []string `json:"owners"`
}

// MembershipRequest is the payload for the role transition endpoints
type MembershipRequest struct {
	UserID         *int64 `json:"user_id"`
	OrganizationID *int64 `json:"org_id"`
}
