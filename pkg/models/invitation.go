package models

// Invitation is the pending-invitation join row keyed by (user, organization).
// Status marks the invitation as sent/active; UserResponse is nil while the
// invitation is unanswered, then true on accept or false on decline.
type Invitation struct {
	UserID         int64 `json:"user_id" db:"user_id"`
	OrganizationID int64 `json:"organization_id" db:"organization_id"`
	Status         bool  `json:"status" db:"status"`
	UserResponse   *bool `json:"user_response" db:"user_response"`
}

// UserInvitation is an invitation row flattened with the organization side,
// as returned by GET /users/{id}/invitations
type UserInvitation struct {
	OrganizationID   int64  `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Status           bool   `json:"status"`
	UserResponse     *bool  `json:"user_response"`
}

// OrganizationInvitation is an invitation row flattened with the user side,
// as returned by GET /organizations/{id}/invitations
type OrganizationInvitation struct {
	UserID       int64  `json:"user_id"`
	UserEmail    string `json:"user_email"`
	Status       bool   `json:"status"`
	UserResponse *bool  `json:"user_response"`
}

// InviteRequest is the payload for POST /organizations/{id}/invite
type InviteRequest struct {
	Email string `json:"email"`
}
