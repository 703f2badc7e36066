package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"org-task-backend/pkg/models"
)

func TestSendInvitation(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register("a@x.com", "pw")
	env.signup("b@x.com", "pw")
	org := createOrg(t, env, ownerToken, "Acme")

	rec := env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate invitation
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Inviting a current member (the owner) is rejected
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing email
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown target user
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown organization
	rec = env.request(http.MethodPost, "/organizations/999/invite",
		ownerToken, map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unauthenticated
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		"", map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAcceptInvitation(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register("a@x.com", "pw")
	inviteeToken := env.register("b@x.com", "pw")
	org := createOrg(t, env, ownerToken, "Acme")

	rec := env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "b@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/accept-invitation", org.ID),
		inviteeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The invitee joined as employee
	details := getOrg(t, env, org.ID)
	require.Len(t, details.Employees, 1)
	assert.Equal(t, "b@x.com", details.Employees[0].Email)

	// The invitation row carries status=true, user_response=true
	invitee, err := env.db.GetUserByEmail("b@x.com")
	require.NoError(t, err)
	inv, err := env.db.GetInvitation(invitee.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, inv.Status)
	require.NotNil(t, inv.UserResponse)
	assert.True(t, *inv.UserResponse)

	// Accepting again is rejected: already a member
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/accept-invitation", org.ID),
		inviteeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A member is rejected even without an invitation row
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/accept-invitation", org.ID),
		ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Accepting with no invitation row at all
	strangerToken := env.register("c@x.com", "pw")
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/accept-invitation", org.ID),
		strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown organization
	rec = env.request(http.MethodPost, "/organizations/999/accept-invitation", inviteeToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeclineInvitation(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register("a@x.com", "pw")
	inviteeToken := env.register("b@x.com", "pw")
	org := createOrg(t, env, ownerToken, "Acme")

	rec := env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "b@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/decline-invitation", org.ID),
		inviteeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// user_response=false, status untouched, no membership granted
	invitee, err := env.db.GetUserByEmail("b@x.com")
	require.NoError(t, err)
	inv, err := env.db.GetInvitation(invitee.ID, org.ID)
	require.NoError(t, err)
	assert.False(t, inv.Status)
	require.NotNil(t, inv.UserResponse)
	assert.False(t, *inv.UserResponse)
	assert.Empty(t, getOrg(t, env, org.ID).Employees)

	// Declining without an invitation row
	strangerToken := env.register("c@x.com", "pw")
	rec = env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/decline-invitation", org.ID),
		strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePendingInvitation(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register("a@x.com", "pw")
	env.signup("b@x.com", "pw")
	org := createOrg(t, env, ownerToken, "Acme")

	rec := env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "b@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	invitee, err := env.db.GetUserByEmail("b@x.com")
	require.NoError(t, err)

	path := fmt.Sprintf("/delete-pending-invitation?user_id=%d&org_id=%d", invitee.ID, org.ID)
	rec = env.request(http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = env.db.GetInvitation(invitee.ID, org.ID)
	assert.Error(t, err)

	// Idempotent: deleting again still succeeds
	rec = env.request(http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Missing parameters
	rec = env.request(http.MethodDelete, "/delete-pending-invitation?user_id=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListInvitations(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register("a@x.com", "pw")
	env.signup("b@x.com", "pw")
	org := createOrg(t, env, ownerToken, "Acme")

	rec := env.request(http.MethodPost, fmt.Sprintf("/organizations/%d/invite", org.ID),
		ownerToken, map[string]string{"email": "b@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	invitee, err := env.db.GetUserByEmail("b@x.com")
	require.NoError(t, err)

	// User view: joined with organization name
	rec = env.request(http.MethodGet, fmt.Sprintf("/users/%d/invitations", invitee.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var userInvs []models.UserInvitation
	decode(t, rec, &userInvs)
	require.Len(t, userInvs, 1)
	assert.Equal(t, org.ID, userInvs[0].OrganizationID)
	assert.Equal(t, "Acme", userInvs[0].OrganizationName)
	assert.False(t, userInvs[0].Status)
	assert.Nil(t, userInvs[0].UserResponse)

	// Organization view: joined with user email
	rec = env.request(http.MethodGet, fmt.Sprintf("/organizations/%d/invitations", org.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var orgInvs []models.OrganizationInvitation
	decode(t, rec, &orgInvs)
	require.Len(t, orgInvs, 1)
	assert.Equal(t, invitee.ID, orgInvs[0].UserID)
	assert.Equal(t, "b@x.com", orgInvs[0].UserEmail)

	// Unknown counterparts
	rec = env.request(http.MethodGet, "/users/999/invitations", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(http.MethodGet, "/organizations/999/invitations", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
