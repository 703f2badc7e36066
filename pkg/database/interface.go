package database

import (
	"errors"
	"fmt"

	"org-task-backend/pkg/models"
)

// Sentinel errors shared by every implementation. Handlers map these to
// 404 and 400 respectively.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DatabaseInterface defines the persistence operations used by handlers
type DatabaseInterface interface {
	// Users
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
	ListUsersByIDs(ids []int64) ([]models.User, error)

	// Organizations
	CreateOrganization(org *models.Organization) error
	GetOrganization(id int64) (*models.Organization, error)
	UpdateOrganization(org *models.Organization) error
	ListOwnedOrganizations(userID int64) ([]models.Organization, error)
	// ListWorkingOrganizations returns organizations where the user is an
	// admin or an employee (each organization at most once).
	ListWorkingOrganizations(userID int64) ([]models.Organization, error)

	// Membership role sets (owners/admins/employees join tables)
	AddMember(orgID, userID int64, role models.Role) error
	RemoveMember(orgID, userID int64, role models.Role) error
	HasMember(orgID, userID int64, role models.Role) (bool, error)
	ListMembers(orgID int64, role models.Role) ([]models.UserRef, error)

	// Pending invitations, keyed by (user, organization)
	CreateInvitation(inv *models.Invitation) error
	GetInvitation(userID, orgID int64) (*models.Invitation, error)
	UpdateInvitation(inv *models.Invitation) error
	// DeleteInvitation is idempotent: deleting an absent row is not an error.
	DeleteInvitation(userID, orgID int64) error
	ListUserInvitations(userID int64) ([]models.UserInvitation, error)
	ListOrganizationInvitations(orgID int64) ([]models.OrganizationInvitation, error)

	// Tasks
	CreateTask(task *models.Task) error
	GetTask(id int64) (*models.Task, error)
	ListTasksByOrganization(orgID int64) ([]models.Task, error)
	UpdateTask(task *models.Task) error
	DeleteTask(id int64) error

	// Health
	HealthCheck() error

	// Close releases the underlying connection
	Close() error
}

// DatabaseConfig selects and configures a database implementation
type DatabaseConfig struct {
	UseLocalDB   bool
	LocalDataDir string
	PostgresDSN  string
	Debug        bool
}

// NewDatabase picks a database implementation from the configuration:
// PostgreSQL when a DSN is configured, the local file database otherwise.
func NewDatabase(config DatabaseConfig) DatabaseInterface {
	if !config.UseLocalDB && config.PostgresDSN != "" {
		fmt.Printf("Using PostgreSQL database\n")
		return NewPostgresDatabase(config.PostgresDSN)
	}

	if config.UseLocalDB {
		fmt.Printf("Using local file database at %s\n", config.LocalDataDir)
		return NewLocalDatabase(config.LocalDataDir)
	}

	panic("No valid database configuration found. Please configure POSTGRES_DSN or USE_LOCAL_DB=true")
}
