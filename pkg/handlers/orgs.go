package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	chiRoute "github.com/go-chi/chi/v5"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/middleware"
	"org-task-backend/pkg/models"
	"org-task-backend/pkg/utils"
)

// OrgsHandler serves organization CRUD and role transition endpoints
type OrgsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

// NewOrgsHandler creates an organizations handler
func NewOrgsHandler(cfg *config.Config, db database.DatabaseInterface) *OrgsHandler {
	return &OrgsHandler{config: cfg, db: db}
}

// parseIDParam reads an integer URL parameter
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chiRoute.URLParam(r, name), 10, 64)
}

// serializeOrganization assembles an organization with its member sets
func serializeOrganization(db database.DatabaseInterface, org *models.Organization) (*models.OrganizationDetails, error) {
	owners, err := db.ListMembers(org.ID, models.RoleOwner)
	if err != nil {
		return nil, err
	}
	admins, err := db.ListMembers(org.ID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	employees, err := db.ListMembers(org.ID, models.RoleEmployee)
	if err != nil {
		return nil, err
	}

	return &models.OrganizationDetails{
		ID:        org.ID,
		Name:      org.Name,
		Owners:    owners,
		Admins:    admins,
		Employees: employees,
	}, nil
}

// isAnyMember checks the three role sets individually
func isAnyMember(db database.DatabaseInterface, orgID, userID int64) (bool, error) {
	for _, role := range []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleEmployee} {
		member, err := db.HasMember(orgID, userID, role)
		if err != nil {
			return false, err
		}
		if member {
			return true, nil
		}
	}
	return false, nil
}

// CreateOrganization handles POST /organizations
func (h *OrgsHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.CreateOrganizationRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		utils.WriteMessageResponse(w, http.StatusBadRequest, "Organization name is required")
		return
	}

	creator, err := h.db.GetUserByEmail(identity.Email)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
		return
	}

	// Additional owner emails: resolved before any write, silently
	// skipping unknowns.
	extraOwners := make([]*models.User, 0, len(req.Owners))
	for _, ownerEmail := range req.Owners {
		owner, err := h.db.GetUserByEmail(ownerEmail)
		if err != nil {
			continue
		}
		extraOwners = append(extraOwners, owner)
	}

	org := &models.Organization{Name: req.Name}
	if err := h.db.CreateOrganization(org); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteMessageResponse(w, http.StatusBadRequest, "Organization name already exists")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to create organization")
		return
	}

	// The creator is always an owner
	if err := h.db.AddMember(org.ID, creator.ID, models.RoleOwner); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	for _, owner := range extraOwners {
		if err := h.db.AddMember(org.ID, owner.ID, models.RoleOwner); err != nil {
			utils.WriteInternalServerErrorResponse(w, err.Error())
			return
		}
	}

	utils.WriteMessageResponse(w, http.StatusCreated, "Organization added successfully")
}

// UpdateOrganization handles PUT /organizations/{orgID}
func (h *OrgsHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orgID, err := parseIDParam(r, "orgID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid organization id")
		return
	}

	org, err := h.db.GetOrganization(orgID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	if _, err := h.db.GetUserByEmail(identity.Email); err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	var req models.UpdateOrganizationRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Resolve every listed owner email before touching the store so an
	// unknown email cannot leave a half-applied update behind.
	owners := make([]*models.User, 0, len(req.Owners))
	for _, ownerEmail := range req.Owners {
		if ownerEmail == "" {
			continue
		}

		owner, err := h.db.GetUserByEmail(ownerEmail)
		if err != nil {
			utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
			return
		}
		owners = append(owners, owner)
	}

	if req.Name != "" {
		org.Name = req.Name
		if err := h.db.UpdateOrganization(org); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				utils.WriteMessageResponse(w, http.StatusBadRequest, "Organization name already exists")
				return
			}
			utils.WriteInternalServerErrorResponse(w, err.Error())
			return
		}
	}

	// Promote the resolved owners, dropping any admin/employee role they
	// currently hold so the role sets stay mutually exclusive.
	for _, owner := range owners {
		for _, role := range []models.Role{models.RoleAdmin, models.RoleEmployee} {
			member, err := h.db.HasMember(org.ID, owner.ID, role)
			if err != nil {
				utils.WriteInternalServerErrorResponse(w, err.Error())
				return
			}
			if member {
				if err := h.db.RemoveMember(org.ID, owner.ID, role); err != nil {
					utils.WriteInternalServerErrorResponse(w, err.Error())
					return
				}
			}
		}

		if err := h.db.AddMember(org.ID, owner.ID, models.RoleOwner); err != nil {
			utils.WriteInternalServerErrorResponse(w, err.Error())
			return
		}
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Organization updated successfully")
}

// GetOrganization handles GET /organization/{orgID}
func (h *OrgsHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := parseIDParam(r, "orgID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid organization id")
		return
	}

	org, err := h.db.GetOrganization(orgID)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	details, err := serializeOrganization(h.db, org)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, details)
}

// UserOrganizations handles GET /user/organizations: the owners-view and
// working-view returned separately.
func (h *OrgsHandler) UserOrganizations(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.db.GetUserByEmail(identity.Email)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
		return
	}

	owning, err := h.db.ListOwnedOrganizations(user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	working, err := h.db.ListWorkingOrganizations(user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	serialize := func(orgs []models.Organization) ([]models.OrganizationDetails, error) {
		details := []models.OrganizationDetails{}
		for i := range orgs {
			d, err := serializeOrganization(h.db, &orgs[i])
			if err != nil {
				return nil, err
			}
			details = append(details, *d)
		}
		return details, nil
	}

	owningDetails, err := serialize(owning)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	workingDetails, err := serialize(working)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"organizations_owning":  owningDetails,
		"organizations_working": workingDetails,
	})
}

// moveMember validates the org/user pair and moves the user between two
// role sets (or just removes when to is empty).
func (h *OrgsHandler) moveMember(w http.ResponseWriter, userID, orgID int64, from, to models.Role, successMsg, missingMsg string) {
	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Organization not found.")
		return
	}

	if _, err := h.db.GetUserByID(userID); err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "User not found.")
		return
	}

	member, err := h.db.HasMember(orgID, userID, from)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if !member {
		utils.WriteErrorResponse(w, http.StatusNotFound, missingMsg)
		return
	}

	// The target role is written before the source is removed: an
	// interrupted move leaves the user in both sets, never in neither.
	if to != "" {
		if err := h.db.AddMember(orgID, userID, to); err != nil {
			utils.WriteInternalServerErrorResponse(w, err.Error())
			return
		}
	}
	if err := h.db.RemoveMember(orgID, userID, from); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, successMsg)
}

// parseMembershipBody reads {user_id, org_id} from a JSON body
func parseMembershipBody(w http.ResponseWriter, r *http.Request) (userID, orgID int64, ok bool) {
	var req models.MembershipRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return 0, 0, false
	}
	if req.UserID == nil || req.OrganizationID == nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Both user_id and org_id are required.")
		return 0, 0, false
	}
	return *req.UserID, *req.OrganizationID, true
}

// parseMembershipQuery reads user_id and org_id query parameters
func parseMembershipQuery(w http.ResponseWriter, r *http.Request) (userID, orgID int64, ok bool) {
	userParam := r.URL.Query().Get("user_id")
	orgParam := r.URL.Query().Get("org_id")
	if userParam == "" || orgParam == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Both user_id and org_id are required.")
		return 0, 0, false
	}

	userID, err := strconv.ParseInt(userParam, 10, 64)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "user_id must be an integer")
		return 0, 0, false
	}
	orgID, err = strconv.ParseInt(orgParam, 10, 64)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "org_id must be an integer")
		return 0, 0, false
	}
	return userID, orgID, true
}

// PromoteEmployee handles POST /move-employee-to-admin
func (h *OrgsHandler) PromoteEmployee(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := parseMembershipBody(w, r)
	if !ok {
		return
	}
	h.moveMember(w, userID, orgID, models.RoleEmployee, models.RoleAdmin,
		"User moved from employees to admins successfully", "User not found in employees.")
}

// DemoteAdmin handles POST /move-admin-to-employee
func (h *OrgsHandler) DemoteAdmin(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := parseMembershipBody(w, r)
	if !ok {
		return
	}
	h.moveMember(w, userID, orgID, models.RoleAdmin, models.RoleEmployee,
		"User moved from admins to employees successfully", "User not found in admins.")
}

// RemoveEmployee handles DELETE /remove-employee
func (h *OrgsHandler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := parseMembershipQuery(w, r)
	if !ok {
		return
	}
	h.moveMember(w, userID, orgID, models.RoleEmployee, "",
		"Employee removed from employees list.", "Employee is not in the employees list.")
}

// RemoveAdmin handles DELETE /remove-admin
func (h *OrgsHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := parseMembershipQuery(w, r)
	if !ok {
		return
	}
	h.moveMember(w, userID, orgID, models.RoleAdmin, "",
		"Admin removed from admins list.", "Admin is not in the admins list.")
}
