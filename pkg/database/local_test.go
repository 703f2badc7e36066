package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"org-task-backend/pkg/database"
	"org-task-backend/pkg/models"
)

func newLocal(t *testing.T) database.DatabaseInterface {
	t.Helper()
	return database.NewLocalDatabase(t.TempDir())
}

func seedUser(t *testing.T, db database.DatabaseInterface, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hash"}
	require.NoError(t, db.CreateUser(user))
	return user
}

func seedOrg(t *testing.T, db database.DatabaseInterface, name string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name}
	require.NoError(t, db.CreateOrganization(org))
	return org
}

func TestLocalUsers(t *testing.T) {
	db := newLocal(t)

	a := seedUser(t, db, "a@x.com")
	b := seedUser(t, db, "b@x.com")
	assert.NotEqual(t, a.ID, b.ID)

	err := db.CreateUser(&models.User{Email: "a@x.com", Password: "other"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	// The password hash must survive the round-trip to disk even though
	// the API model never serializes it.
	got, err := db.GetUserByEmail("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "hash", got.Password)

	got, err = db.GetUserByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", got.Email)

	_, err = db.GetUserByEmail("nobody@x.com")
	assert.ErrorIs(t, err, database.ErrNotFound)

	// Unknown ids are skipped, not errors
	users, err := db.ListUsersByIDs([]int64{a.ID, 999})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, a.Email, users[0].Email)
}

func TestLocalOrganizations(t *testing.T) {
	db := newLocal(t)

	org := seedOrg(t, db, "Acme")
	assert.ErrorIs(t, db.CreateOrganization(&models.Organization{Name: "Acme"}), database.ErrDuplicate)

	other := seedOrg(t, db, "Globex")

	org.Name = "Acme Corp"
	require.NoError(t, db.UpdateOrganization(org))

	got, err := db.GetOrganization(org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)

	// Renaming onto an existing name is a duplicate
	other.Name = "Acme Corp"
	assert.ErrorIs(t, db.UpdateOrganization(other), database.ErrDuplicate)

	assert.ErrorIs(t, db.UpdateOrganization(&models.Organization{ID: 999, Name: "Ghost"}), database.ErrNotFound)
	_, err = db.GetOrganization(999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLocalMemberships(t *testing.T) {
	db := newLocal(t)
	user := seedUser(t, db, "a@x.com")
	org := seedOrg(t, db, "Acme")

	require.NoError(t, db.AddMember(org.ID, user.ID, models.RoleAdmin))
	// Idempotent add
	require.NoError(t, db.AddMember(org.ID, user.ID, models.RoleAdmin))

	admins, err := db.ListMembers(org.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a@x.com", admins[0].Email)

	ok, err := db.HasMember(org.ID, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasMember(org.ID, user.ID, models.RoleOwner)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.RemoveMember(org.ID, user.ID, models.RoleAdmin))
	assert.ErrorIs(t, db.RemoveMember(org.ID, user.ID, models.RoleAdmin), database.ErrNotFound)

	admins, err = db.ListMembers(org.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestLocalOrganizationViews(t *testing.T) {
	db := newLocal(t)
	user := seedUser(t, db, "a@x.com")
	owned := seedOrg(t, db, "Owned")
	adminOrg := seedOrg(t, db, "AdminOrg")
	employeeOrg := seedOrg(t, db, "EmployeeOrg")

	require.NoError(t, db.AddMember(owned.ID, user.ID, models.RoleOwner))
	require.NoError(t, db.AddMember(adminOrg.ID, user.ID, models.RoleAdmin))
	require.NoError(t, db.AddMember(employeeOrg.ID, user.ID, models.RoleEmployee))

	owning, err := db.ListOwnedOrganizations(user.ID)
	require.NoError(t, err)
	require.Len(t, owning, 1)
	assert.Equal(t, owned.ID, owning[0].ID)

	// Working unions the admin and employee sets
	working, err := db.ListWorkingOrganizations(user.ID)
	require.NoError(t, err)
	require.Len(t, working, 2)

	workingIDs := []int64{working[0].ID, working[1].ID}
	assert.Contains(t, workingIDs, adminOrg.ID)
	assert.Contains(t, workingIDs, employeeOrg.ID)
}

func TestLocalInvitations(t *testing.T) {
	db := newLocal(t)
	user := seedUser(t, db, "a@x.com")
	org := seedOrg(t, db, "Acme")

	inv := &models.Invitation{UserID: user.ID, OrganizationID: org.ID}
	require.NoError(t, db.CreateInvitation(inv))
	assert.ErrorIs(t, db.CreateInvitation(inv), database.ErrDuplicate)

	got, err := db.GetInvitation(user.ID, org.ID)
	require.NoError(t, err)
	assert.False(t, got.Status)
	assert.Nil(t, got.UserResponse)

	accepted := true
	got.Status = true
	got.UserResponse = &accepted
	require.NoError(t, db.UpdateInvitation(got))

	got, err = db.GetInvitation(user.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, got.Status)
	require.NotNil(t, got.UserResponse)
	assert.True(t, *got.UserResponse)

	userInvs, err := db.ListUserInvitations(user.ID)
	require.NoError(t, err)
	require.Len(t, userInvs, 1)
	assert.Equal(t, "Acme", userInvs[0].OrganizationName)

	orgInvs, err := db.ListOrganizationInvitations(org.ID)
	require.NoError(t, err)
	require.Len(t, orgInvs, 1)
	assert.Equal(t, "a@x.com", orgInvs[0].UserEmail)

	require.NoError(t, db.DeleteInvitation(user.ID, org.ID))
	_, err = db.GetInvitation(user.ID, org.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	// Deletes are idempotent
	require.NoError(t, db.DeleteInvitation(user.ID, org.ID))

	assert.ErrorIs(t, db.UpdateInvitation(inv), database.ErrNotFound)
}

func TestLocalTasks(t *testing.T) {
	db := newLocal(t)
	user := seedUser(t, db, "a@x.com")
	org := seedOrg(t, db, "Acme")
	other := seedOrg(t, db, "Globex")

	task := &models.Task{OrganizationID: org.ID, Title: "Ship", Description: "Release"}
	require.NoError(t, db.CreateTask(task))
	require.NoError(t, db.CreateTask(&models.Task{OrganizationID: other.ID, Title: "Other", Description: "Elsewhere"}))

	tasks, err := db.ListTasksByOrganization(org.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Ship", tasks[0].Title)

	task.Completed = true
	task.CompletedBy = &user.ID
	task.CompletedByEmail = &user.Email
	require.NoError(t, db.UpdateTask(task))

	got, err := db.GetTask(task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedBy)
	assert.Equal(t, user.ID, *got.CompletedBy)

	require.NoError(t, db.DeleteTask(task.ID))
	assert.ErrorIs(t, db.DeleteTask(task.ID), database.ErrNotFound)
	_, err = db.GetTask(task.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	assert.ErrorIs(t, db.UpdateTask(&models.Task{ID: 999}), database.ErrNotFound)
}

func TestLocalHealthCheck(t *testing.T) {
	db := newLocal(t)
	assert.NoError(t, db.HealthCheck())
	assert.NoError(t, db.Close())
}
