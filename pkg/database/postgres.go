package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"org-task-backend/pkg/models"
)

// PostgresDatabase is the PostgreSQL implementation of DatabaseInterface
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase opens a PostgreSQL connection with pool limits
// suitable for small deployments.
func NewPostgresDatabase(dsn string) DatabaseInterface {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to open PostgreSQL connection: %v", err))
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		panic(fmt.Sprintf("Failed to ping PostgreSQL: %v", err))
	}

	fmt.Printf("PostgreSQL connection established\n")
	return &PostgresDatabase{db: db}
}

// isUniqueViolation reports whether err is a PostgreSQL unique or
// primary key constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// roleTable maps a role to its join table. Role values are a closed set,
// so the table name is safe to interpolate.
func roleTable(role models.Role) (string, error) {
	switch role {
	case models.RoleOwner:
		return "owners", nil
	case models.RoleAdmin:
		return "admins", nil
	case models.RoleEmployee:
		return "employees", nil
	}
	return "", fmt.Errorf("unknown role: %s", role)
}

// CreateUser inserts a user and fills in its generated id
func (db *PostgresDatabase) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := db.db.QueryRow(query, user.Email, user.Password).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks a user up by email
func (db *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	err := db.db.QueryRow(query, email).Scan(
		&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetUserByID looks a user up by id
func (db *PostgresDatabase) GetUserByID(id int64) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	err := db.db.QueryRow(query, id).Scan(
		&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ListUsersByIDs returns the users whose ids appear in ids. Unknown ids
// are skipped, matching the bulk endpoint's behavior.
func (db *PostgresDatabase) ListUsersByIDs(ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ANY($1)
		ORDER BY id
	`
	rows, err := db.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateOrganization inserts an organization and fills in its generated id
func (db *PostgresDatabase) CreateOrganization(org *models.Organization) error {
	query := `
		INSERT INTO organizations (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := db.db.QueryRow(query, org.Name).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetOrganization looks an organization up by id
func (db *PostgresDatabase) GetOrganization(id int64) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	var org models.Organization
	err := db.db.QueryRow(query, id).Scan(
		&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// UpdateOrganization persists a renamed organization
func (db *PostgresDatabase) UpdateOrganization(org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := db.db.Exec(query, org.Name, org.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update organization: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOwnedOrganizations returns organizations where the user is an owner
func (db *PostgresDatabase) ListOwnedOrganizations(userID int64) ([]models.Organization, error) {
	query := `
		SELECT o.id, o.name, o.created_at, o.updated_at
		FROM organizations o
		JOIN owners ow ON ow.organization_id = o.id
		WHERE ow.user_id = $1
		ORDER BY o.id
	`
	return db.queryOrganizations(query, userID)
}

// ListWorkingOrganizations returns organizations where the user is an
// admin or an employee.
func (db *PostgresDatabase) ListWorkingOrganizations(userID int64) ([]models.Organization, error) {
	query := `
		SELECT DISTINCT o.id, o.name, o.created_at, o.updated_at
		FROM organizations o
		WHERE o.id IN (
			SELECT organization_id FROM admins WHERE user_id = $1
			UNION
			SELECT organization_id FROM employees WHERE user_id = $1
		)
		ORDER BY o.id
	`
	return db.queryOrganizations(query, userID)
}

func (db *PostgresDatabase) queryOrganizations(query string, args ...interface{}) ([]models.Organization, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// AddMember inserts a (user, organization) pair into a role table.
// The insert is idempotent.
func (db *PostgresDatabase) AddMember(orgID, userID int64, role models.Role) error {
	table, err := roleTable(role)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, organization_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, table)
	if _, err := db.db.Exec(query, userID, orgID); err != nil {
		return fmt.Errorf("failed to add %s: %w", role, err)
	}
	return nil
}

// RemoveMember deletes a (user, organization) pair from a role table
func (db *PostgresDatabase) RemoveMember(orgID, userID int64, role models.Role) error {
	table, err := roleTable(role)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND organization_id = $2
	`, table)
	result, err := db.db.Exec(query, userID, orgID)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", role, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", role, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasMember reports whether the user is in the given role set
func (db *PostgresDatabase) HasMember(orgID, userID int64, role models.Role) (bool, error) {
	table, err := roleTable(role)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE user_id = $1 AND organization_id = $2
		)
	`, table)
	var exists bool
	if err := db.db.QueryRow(query, userID, orgID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s membership: %w", role, err)
	}
	return exists, nil
}

// ListMembers returns the users in one of the organization's role sets
func (db *PostgresDatabase) ListMembers(orgID int64, role models.Role) ([]models.UserRef, error) {
	table, err := roleTable(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT u.id, u.email
		FROM users u
		JOIN %s m ON m.user_id = u.id
		WHERE m.organization_id = $1
		ORDER BY u.id
	`, table)
	rows, err := db.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s members: %w", role, err)
	}
	defer rows.Close()

	members := []models.UserRef{}
	for rows.Next() {
		var ref models.UserRef
		if err := rows.Scan(&ref.ID, &ref.Email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, ref)
	}
	return members, rows.Err()
}

// CreateInvitation inserts a pending invitation row
func (db *PostgresDatabase) CreateInvitation(inv *models.Invitation) error {
	query := `
		INSERT INTO pending_invitations (user_id, organization_id, status, user_response)
		VALUES ($1, $2, $3, $4)
	`
	_, err := db.db.Exec(query, inv.UserID, inv.OrganizationID, inv.Status, inv.UserResponse)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitation fetches the invitation row for a (user, organization) pair
func (db *PostgresDatabase) GetInvitation(userID, orgID int64) (*models.Invitation, error) {
	query := `
		SELECT user_id, organization_id, status, user_response
		FROM pending_invitations
		WHERE user_id = $1 AND organization_id = $2
	`
	var inv models.Invitation
	err := db.db.QueryRow(query, userID, orgID).Scan(
		&inv.UserID, &inv.OrganizationID, &inv.Status, &inv.UserResponse,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// UpdateInvitation persists the status/user_response flags of a row
func (db *PostgresDatabase) UpdateInvitation(inv *models.Invitation) error {
	query := `
		UPDATE pending_invitations
		SET status = $1, user_response = $2
		WHERE user_id = $3 AND organization_id = $4
	`
	result, err := db.db.Exec(query, inv.Status, inv.UserResponse, inv.UserID, inv.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInvitation removes the row for a pair; absent rows are ignored
func (db *PostgresDatabase) DeleteInvitation(userID, orgID int64) error {
	query := `
		DELETE FROM pending_invitations
		WHERE user_id = $1 AND organization_id = $2
	`
	if _, err := db.db.Exec(query, userID, orgID); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return nil
}

// ListUserInvitations returns a user's invitations joined with the
// organization name.
func (db *PostgresDatabase) ListUserInvitations(userID int64) ([]models.UserInvitation, error) {
	query := `
		SELECT o.id, o.name, pi.status, pi.user_response
		FROM pending_invitations pi
		JOIN organizations o ON o.id = pi.organization_id
		WHERE pi.user_id = $1
		ORDER BY o.id
	`
	rows, err := db.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.UserInvitation{}
	for rows.Next() {
		var inv models.UserInvitation
		if err := rows.Scan(&inv.OrganizationID, &inv.OrganizationName, &inv.Status, &inv.UserResponse); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// ListOrganizationInvitations returns an organization's invitations joined
// with the invited user's email.
func (db *PostgresDatabase) ListOrganizationInvitations(orgID int64) ([]models.OrganizationInvitation, error) {
	query := `
		SELECT u.id, u.email, pi.status, pi.user_response
		FROM pending_invitations pi
		JOIN users u ON u.id = pi.user_id
		WHERE pi.organization_id = $1
		ORDER BY u.id
	`
	rows, err := db.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.OrganizationInvitation{}
	for rows.Next() {
		var inv models.OrganizationInvitation
		if err := rows.Scan(&inv.UserID, &inv.UserEmail, &inv.Status, &inv.UserResponse); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// CreateTask inserts a task and fills in its generated id
func (db *PostgresDatabase) CreateTask(task *models.Task) error {
	query := `
		INSERT INTO tasks (organization_id, title, description, completed)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id
	`
	err := db.db.QueryRow(query, task.OrganizationID, task.Title, task.Description).
		Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask looks a task up by id
func (db *PostgresDatabase) GetTask(id int64) (*models.Task, error) {
	query := `
		SELECT id, organization_id, title, description, completed,
		       completed_by, completed_by_email, completed_at
		FROM tasks
		WHERE id = $1
	`
	var t models.Task
	err := db.db.QueryRow(query, id).Scan(
		&t.ID, &t.OrganizationID, &t.Title, &t.Description, &t.Completed,
		&t.CompletedBy, &t.CompletedByEmail, &t.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// ListTasksByOrganization returns all tasks of an organization
func (db *PostgresDatabase) ListTasksByOrganization(orgID int64) ([]models.Task, error) {
	query := `
		SELECT id, organization_id, title, description, completed,
		       completed_by, completed_by_email, completed_at
		FROM tasks
		WHERE organization_id = $1
		ORDER BY id
	`
	rows, err := db.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.OrganizationID, &t.Title, &t.Description, &t.Completed,
			&t.CompletedBy, &t.CompletedByEmail, &t.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask writes the task's completion fields in one statement so
// they stay consistent.
func (db *PostgresDatabase) UpdateTask(task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3,
		    completed_by = $4, completed_by_email = $5, completed_at = $6
		WHERE id = $7
	`
	result, err := db.db.Exec(query,
		task.Title, task.Description, task.Completed,
		task.CompletedBy, task.CompletedByEmail, task.CompletedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task permanently
func (db *PostgresDatabase) DeleteTask(id int64) error {
	result, err := db.db.Exec(`DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// HealthCheck pings the database
func (db *PostgresDatabase) HealthCheck() error {
	return db.db.Ping()
}

// Close closes the connection pool
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
