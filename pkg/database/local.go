package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"org-task-backend/pkg/models"
)

// LocalDatabase is a JSON-file implementation of DatabaseInterface for
// development and tests. Each entity lives in its own file under the
// data directory; reads load the whole file, writes rewrite it.
type LocalDatabase struct {
	dataDir string
	mu      sync.Mutex // guards read-modify-write cycles on the files
}

// membership is one row of a role join table
type membership struct {
	UserID         int64       `json:"user_id"`
	OrganizationID int64       `json:"organization_id"`
	Role           models.Role `json:"role"`
}

// storedUser is the on-disk user row. The API model hides the password
// hash from JSON output; the store must keep it.
type storedUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLocalDatabase creates a local database rooted at dataDir
func NewLocalDatabase(dataDir string) DatabaseInterface {
	if dataDir == "" {
		dataDir = "./data"
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("Warning: failed to create data directory: %v\n", err)
		dataDir = filepath.Join(os.TempDir(), "org-task-data")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			fmt.Printf("Warning: failed to create temp data directory: %v\n", err)
			dataDir = "."
		}
	}

	return &LocalDatabase{dataDir: dataDir}
}

// CreateUser stores a new user, enforcing email uniqueness
func (db *LocalDatabase) CreateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	users, err := db.loadUsers()
	if err != nil {
		return err
	}

	for _, u := range users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}

	user.ID = nextID(len(users), func(i int) int64 { return users[i].ID })
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	users = append(users, *user)
	return db.saveUsers(users)
}

// GetUserByEmail looks a user up by email
func (db *LocalDatabase) GetUserByEmail(email string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByID looks a user up by id
func (db *LocalDatabase) GetUserByID(id int64) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// ListUsersByIDs returns users whose ids appear in ids; unknown ids are skipped
func (db *LocalDatabase) ListUsersByIDs(ids []int64) ([]models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	matched := []models.User{}
	for _, u := range users {
		if wanted[u.ID] {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

// CreateOrganization stores a new organization, enforcing name uniqueness
func (db *LocalDatabase) CreateOrganization(org *models.Organization) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	orgs, err := db.loadOrganizations()
	if err != nil {
		return err
	}

	for _, o := range orgs {
		if o.Name == org.Name {
			return ErrDuplicate
		}
	}

	org.ID = nextID(len(orgs), func(i int) int64 { return orgs[i].ID })
	org.CreatedAt = time.Now()
	org.UpdatedAt = time.Now()

	orgs = append(orgs, *org)
	return db.saveJSON("organizations.json", orgs)
}

// GetOrganization looks an organization up by id
func (db *LocalDatabase) GetOrganization(id int64) (*models.Organization, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	orgs, err := db.loadOrganizations()
	if err != nil {
		return nil, err
	}

	for _, o := range orgs {
		if o.ID == id {
			org := o
			return &org, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateOrganization persists a renamed organization
func (db *LocalDatabase) UpdateOrganization(org *models.Organization) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	orgs, err := db.loadOrganizations()
	if err != nil {
		return err
	}

	for i, o := range orgs {
		if o.ID == org.ID {
			for _, other := range orgs {
				if other.ID != org.ID && other.Name == org.Name {
					return ErrDuplicate
				}
			}
			org.CreatedAt = o.CreatedAt
			org.UpdatedAt = time.Now()
			orgs[i] = *org
			return db.saveJSON("organizations.json", orgs)
		}
	}
	return ErrNotFound
}

// ListOwnedOrganizations returns organizations where the user is an owner
func (db *LocalDatabase) ListOwnedOrganizations(userID int64) ([]models.Organization, error) {
	return db.listOrganizationsByRoles(userID, models.RoleOwner)
}

// ListWorkingOrganizations returns organizations where the user is an
// admin or an employee.
func (db *LocalDatabase) ListWorkingOrganizations(userID int64) ([]models.Organization, error) {
	return db.listOrganizationsByRoles(userID, models.RoleAdmin, models.RoleEmployee)
}

func (db *LocalDatabase) listOrganizationsByRoles(userID int64, roles ...models.Role) ([]models.Organization, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	memberships, err := db.loadMemberships()
	if err != nil {
		return nil, err
	}
	orgs, err := db.loadOrganizations()
	if err != nil {
		return nil, err
	}

	inRole := func(role models.Role) bool {
		for _, r := range roles {
			if r == role {
				return true
			}
		}
		return false
	}

	orgIDs := map[int64]bool{}
	for _, m := range memberships {
		if m.UserID == userID && inRole(m.Role) {
			orgIDs[m.OrganizationID] = true
		}
	}

	matched := []models.Organization{}
	for _, o := range orgs {
		if orgIDs[o.ID] {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

// AddMember adds a (user, organization) pair to a role set; idempotent
func (db *LocalDatabase) AddMember(orgID, userID int64, role models.Role) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	memberships, err := db.loadMemberships()
	if err != nil {
		return err
	}

	for _, m := range memberships {
		if m.UserID == userID && m.OrganizationID == orgID && m.Role == role {
			return nil
		}
	}

	memberships = append(memberships, membership{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
	})
	return db.saveJSON("memberships.json", memberships)
}

// RemoveMember removes a (user, organization) pair from a role set
func (db *LocalDatabase) RemoveMember(orgID, userID int64, role models.Role) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	memberships, err := db.loadMemberships()
	if err != nil {
		return err
	}

	kept := memberships[:0]
	found := false
	for _, m := range memberships {
		if m.UserID == userID && m.OrganizationID == orgID && m.Role == role {
			found = true
			continue
		}
		kept = append(kept, m)
	}

	if !found {
		return ErrNotFound
	}
	return db.saveJSON("memberships.json", kept)
}

// HasMember reports whether the user is in the given role set
func (db *LocalDatabase) HasMember(orgID, userID int64, role models.Role) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	memberships, err := db.loadMemberships()
	if err != nil {
		return false, err
	}

	for _, m := range memberships {
		if m.UserID == userID && m.OrganizationID == orgID && m.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// ListMembers returns the users in one of the organization's role sets
func (db *LocalDatabase) ListMembers(orgID int64, role models.Role) ([]models.UserRef, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	memberships, err := db.loadMemberships()
	if err != nil {
		return nil, err
	}
	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}

	emails := map[int64]string{}
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	members := []models.UserRef{}
	for _, m := range memberships {
		if m.OrganizationID == orgID && m.Role == role {
			members = append(members, models.UserRef{ID: m.UserID, Email: emails[m.UserID]})
		}
	}
	return members, nil
}

// CreateInvitation stores a pending invitation row
func (db *LocalDatabase) CreateInvitation(inv *models.Invitation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	invitations, err := db.loadInvitations()
	if err != nil {
		return err
	}

	for _, i := range invitations {
		if i.UserID == inv.UserID && i.OrganizationID == inv.OrganizationID {
			return ErrDuplicate
		}
	}

	invitations = append(invitations, *inv)
	return db.saveJSON("invitations.json", invitations)
}

// GetInvitation fetches the row for a (user, organization) pair
func (db *LocalDatabase) GetInvitation(userID, orgID int64) (*models.Invitation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	invitations, err := db.loadInvitations()
	if err != nil {
		return nil, err
	}

	for _, i := range invitations {
		if i.UserID == userID && i.OrganizationID == orgID {
			inv := i
			return &inv, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateInvitation persists the status/user_response flags of a row
func (db *LocalDatabase) UpdateInvitation(inv *models.Invitation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	invitations, err := db.loadInvitations()
	if err != nil {
		return err
	}

	for i, existing := range invitations {
		if existing.UserID == inv.UserID && existing.OrganizationID == inv.OrganizationID {
			invitations[i] = *inv
			return db.saveJSON("invitations.json", invitations)
		}
	}
	return ErrNotFound
}

// DeleteInvitation removes the row for a pair; absent rows are ignored
func (db *LocalDatabase) DeleteInvitation(userID, orgID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	invitations, err := db.loadInvitations()
	if err != nil {
		return err
	}

	kept := invitations[:0]
	for _, i := range invitations {
		if i.UserID == userID && i.OrganizationID == orgID {
			continue
		}
		kept = append(kept, i)
	}
	return db.saveJSON("invitations.json", kept)
}

// ListUserInvitations returns a user's invitations with organization names
func (db *LocalDatabase) ListUserInvitations(userID int64) ([]models.UserInvitation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	invitations, err := db.loadInvitations()
	if err != nil {
		return nil, err
	}
	orgs, err := db.loadOrganizations()
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	for _, o := range orgs {
		names[o.ID] = o.Name
	}

	matched := []models.UserInvitation{}
	for _, i := range invitations {
		if i.UserID == userID {
			matched = append(matched, models.UserInvitation{
				OrganizationID:   i.OrganizationID,
				OrganizationName: names[i.OrganizationID],
				Status:           i.Status,
				UserResponse:     i.UserResponse,
			})
		}
	}
	return matched, nil
}

// ListOrganizationInvitations returns an organization's invitations with
// invited user emails.
func (db *LocalDatabase) ListOrganizationInvitations(orgID int64) ([]models.OrganizationInvitation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	invitations, err := db.loadInvitations()
	if err != nil {
		return nil, err
	}
	users, err := db.loadUsers()
	if err != nil {
		return nil, err
	}

	emails := map[int64]string{}
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	matched := []models.OrganizationInvitation{}
	for _, i := range invitations {
		if i.OrganizationID == orgID {
			matched = append(matched, models.OrganizationInvitation{
				UserID:       i.UserID,
				UserEmail:    emails[i.UserID],
				Status:       i.Status,
				UserResponse: i.UserResponse,
			})
		}
	}
	return matched, nil
}

// CreateTask stores a new task
func (db *LocalDatabase) CreateTask(task *models.Task) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tasks, err := db.loadTasks()
	if err != nil {
		return err
	}

	task.ID = nextID(len(tasks), func(i int) int64 { return tasks[i].ID })
	tasks = append(tasks, *task)
	return db.saveJSON("tasks.json", tasks)
}

// GetTask looks a task up by id
func (db *LocalDatabase) GetTask(id int64) (*models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tasks, err := db.loadTasks()
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if t.ID == id {
			task := t
			return &task, nil
		}
	}
	return nil, ErrNotFound
}

// ListTasksByOrganization returns all tasks of an organization
func (db *LocalDatabase) ListTasksByOrganization(orgID int64) ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tasks, err := db.loadTasks()
	if err != nil {
		return nil, err
	}

	matched := []models.Task{}
	for _, t := range tasks {
		if t.OrganizationID == orgID {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// UpdateTask rewrites a stored task
func (db *LocalDatabase) UpdateTask(task *models.Task) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tasks, err := db.loadTasks()
	if err != nil {
		return err
	}

	for i, t := range tasks {
		if t.ID == task.ID {
			tasks[i] = *task
			return db.saveJSON("tasks.json", tasks)
		}
	}
	return ErrNotFound
}

// DeleteTask removes a task permanently
func (db *LocalDatabase) DeleteTask(id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tasks, err := db.loadTasks()
	if err != nil {
		return err
	}

	kept := tasks[:0]
	found := false
	for _, t := range tasks {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}

	if !found {
		return ErrNotFound
	}
	return db.saveJSON("tasks.json", kept)
}

// HealthCheck verifies the data directory is accessible
func (db *LocalDatabase) HealthCheck() error {
	if _, err := os.Stat(db.dataDir); os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s", db.dataDir)
	}
	return nil
}

// Close is a no-op for the local database
func (db *LocalDatabase) Close() error {
	return nil
}

// Private helpers

// nextID returns max(id)+1 over the loaded slice
func nextID(n int, idAt func(int) int64) int64 {
	var max int64
	for i := 0; i < n; i++ {
		if id := idAt(i); id > max {
			max = id
		}
	}
	return max + 1
}

func (db *LocalDatabase) loadUsers() ([]models.User, error) {
	var rows []storedUser
	if err := db.loadJSON("users.json", &rows); err != nil {
		return nil, err
	}

	users := make([]models.User, len(rows))
	for i, row := range rows {
		users[i] = models.User{
			ID:        row.ID,
			Email:     row.Email,
			Password:  row.Password,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return users, nil
}

func (db *LocalDatabase) saveUsers(users []models.User) error {
	rows := make([]storedUser, len(users))
	for i, u := range users {
		rows[i] = storedUser{
			ID:        u.ID,
			Email:     u.Email,
			Password:  u.Password,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		}
	}
	return db.saveJSON("users.json", rows)
}

func (db *LocalDatabase) loadOrganizations() ([]models.Organization, error) {
	var orgs []models.Organization
	if err := db.loadJSON("organizations.json", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (db *LocalDatabase) loadMemberships() ([]membership, error) {
	var memberships []membership
	if err := db.loadJSON("memberships.json", &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (db *LocalDatabase) loadInvitations() ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := db.loadJSON("invitations.json", &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (db *LocalDatabase) loadTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := db.loadJSON("tasks.json", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (db *LocalDatabase) loadJSON(filename string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(db.dataDir, filename))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (db *LocalDatabase) saveJSON(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(db.dataDir, filename), data, 0644)
}
