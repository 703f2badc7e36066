package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"org-task-backend/pkg/models"
)

// createOrg creates an organization through the API and returns its
// details fetched back from GET /organization/{id}.
func createOrg(t *testing.T, env *testEnv, token, name string, owners ...string) models.OrganizationDetails {
	t.Helper()

	body := map[string]interface{}{"name": name}
	if len(owners) > 0 {
		body["owners"] = owners
	}
	rec := env.request(http.MethodPost, "/organizations", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Ids are sequential in the local database; resolve via the owning list
	rec = env.request(http.MethodGet, "/user/organizations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Owning []models.OrganizationDetails `json:"organizations_owning"`
	}
	decode(t, rec, &resp)
	for _, org := range resp.Owning {
		if org.Name == name {
			return org
		}
	}
	t.Fatalf("organization %q not found in owning list", name)
	return models.OrganizationDetails{}
}

func getOrg(t *testing.T, env *testEnv, orgID int64) models.OrganizationDetails {
	t.Helper()
	rec := env.request(http.MethodGet, fmt.Sprintf("/organization/%d", orgID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var details models.OrganizationDetails
	decode(t, rec, &details)
	return details
}

func TestCreateOrganization(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@x.com", "pw")
	env.signup("co@x.com", "pw")

	org := createOrg(t, env, token, "Acme", "co@x.com", "unknown@x.com")

	// Creator and resolved extra owner; unknown email silently skipped
	require.Len(t, org.Owners, 2)
	assert.Equal(t, "owner@x.com", org.Owners[0].Email)
	assert.Equal(t, "co@x.com", org.Owners[1].Email)
	assert.Empty(t, org.Admins)
	assert.Empty(t, org.Employees)

	// Missing name
	rec := env.request(http.MethodPost, "/organizations", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Duplicate name
	rec = env.request(http.MethodPost, "/organizations", token, map[string]interface{}{"name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unauthenticated
	rec = env.request(http.MethodPost, "/organizations", "", map[string]interface{}{"name": "Other"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateOrganizationRename(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@x.com", "pw")
	org := createOrg(t, env, token, "Acme")

	rec := env.request(http.MethodPut, fmt.Sprintf("/organizations/%d", org.ID), token,
		map[string]interface{}{"name": "Acme Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := getOrg(t, env, org.ID)
	assert.Equal(t, "Acme Renamed", updated.Name)

	// Unknown organization
	rec = env.request(http.MethodPut, "/organizations/999", token,
		map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateOrganizationOwnerPromotion(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@x.com", "pw")
	env.signup("worker@x.com", "pw")
	org := createOrg(t, env, token, "Acme")

	worker, err := env.db.GetUserByEmail("worker@x.com")
	require.NoError(t, err)

	// Seed the worker into both non-owner role sets
	require.NoError(t, env.db.AddMember(org.ID, worker.ID, models.RoleAdmin))
	require.NoError(t, env.db.AddMember(org.ID, worker.ID, models.RoleEmployee))

	rec := env.request(http.MethodPut, fmt.Sprintf("/organizations/%d", org.ID), token,
		map[string]interface{}{"owners": []string{"worker@x.com"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Role sets are mutually exclusive after the promotion
	updated := getOrg(t, env, org.ID)
	assert.Empty(t, updated.Admins)
	assert.Empty(t, updated.Employees)

	emails := []string{}
	for _, o := range updated.Owners {
		emails = append(emails, o.Email)
	}
	assert.Contains(t, emails, "worker@x.com")

	// Unknown owner email fails the update
	rec = env.request(http.MethodPut, fmt.Sprintf("/organizations/%d", org.ID), token,
		map[string]interface{}{"owners": []string{"nobody@x.com"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateOrganizationFailureLeavesNoPartialState(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@x.com", "pw")
	org := createOrg(t, env, token, "Acme")

	// A rename bundled with an unknown owner email must not apply the
	// rename either.
	rec := env.request(http.MethodPut, fmt.Sprintf("/organizations/%d", org.ID), token,
		map[string]interface{}{"name": "Renamed", "owners": []string{"ghost@x.com"}})
	require.Equal(t, http.StatusNotFound, rec.Code)

	updated := getOrg(t, env, org.ID)
	assert.Equal(t, "Acme", updated.Name)
	require.Len(t, updated.Owners, 1)
	assert.Equal(t, "owner@x.com", updated.Owners[0].Email)
}

func TestUserOrganizationsViews(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register("owner@x.com", "pw")
	workerToken := env.register("worker@x.com", "pw")
	org := createOrg(t, env, ownerToken, "Acme")

	worker, err := env.db.GetUserByEmail("worker@x.com")
	require.NoError(t, err)
	require.NoError(t, env.db.AddMember(org.ID, worker.ID, models.RoleEmployee))

	rec := env.request(http.MethodGet, "/user/organizations", workerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Owning  []models.OrganizationDetails `json:"organizations_owning"`
		Working []models.OrganizationDetails `json:"organizations_working"`
	}
	decode(t, rec, &resp)
	assert.Empty(t, resp.Owning)
	require.Len(t, resp.Working, 1)
	assert.Equal(t, "Acme", resp.Working[0].Name)
}

func TestRoleTransitions(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@x.com", "pw")
	env.signup("worker@x.com", "pw")
	org := createOrg(t, env, token, "Acme")

	worker, err := env.db.GetUserByEmail("worker@x.com")
	require.NoError(t, err)
	require.NoError(t, env.db.AddMember(org.ID, worker.ID, models.RoleEmployee))

	// Promote employee to admin
	rec := env.request(http.MethodPost, "/move-employee-to-admin", "", map[string]int64{
		"user_id": worker.ID, "org_id": org.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	details := getOrg(t, env, org.ID)
	assert.Empty(t, details.Employees)
	require.Len(t, details.Admins, 1)
	assert.Equal(t, worker.ID, details.Admins[0].ID)

	// Promoting again fails: no longer an employee
	rec = env.request(http.MethodPost, "/move-employee-to-admin", "", map[string]int64{
		"user_id": worker.ID, "org_id": org.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Demote admin back to employee
	rec = env.request(http.MethodPost, "/move-admin-to-employee", "", map[string]int64{
		"user_id": worker.ID, "org_id": org.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	details = getOrg(t, env, org.ID)
	assert.Empty(t, details.Admins)
	require.Len(t, details.Employees, 1)

	// Remove employee
	rec = env.request(http.MethodDelete,
		fmt.Sprintf("/remove-employee?user_id=%d&org_id=%d", worker.ID, org.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, getOrg(t, env, org.ID).Employees)

	// Removing again fails
	rec = env.request(http.MethodDelete,
		fmt.Sprintf("/remove-employee?user_id=%d&org_id=%d", worker.ID, org.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Remove admin on a seeded admin
	require.NoError(t, env.db.AddMember(org.ID, worker.ID, models.RoleAdmin))
	rec = env.request(http.MethodDelete,
		fmt.Sprintf("/remove-admin?user_id=%d&org_id=%d", worker.ID, org.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, getOrg(t, env, org.ID).Admins)

	// Validation and not-found paths
	rec = env.request(http.MethodPost, "/move-employee-to-admin", "", map[string]int64{"user_id": worker.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(http.MethodPost, "/move-employee-to-admin", "", map[string]int64{
		"user_id": worker.ID, "org_id": 999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(http.MethodPost, "/move-employee-to-admin", "", map[string]int64{
		"user_id": 999, "org_id": org.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(http.MethodDelete, "/remove-employee?user_id=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrganizationNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(http.MethodGet, "/organization/42", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
