package handlers

import (
	"errors"
	"net/http"
	"strings"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/middleware"
	"org-task-backend/pkg/models"
	"org-task-backend/pkg/utils"
)

// InvitationsHandler serves the invitation lifecycle endpoints
type InvitationsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

// NewInvitationsHandler creates an invitations handler
func NewInvitationsHandler(cfg *config.Config, db database.DatabaseInterface) *InvitationsHandler {
	return &InvitationsHandler{config: cfg, db: db}
}

// SendInvitation handles POST /organizations/{orgID}/invite
func (h *InvitationsHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, err := parseIDParam(r, "orgID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid organization id")
		return
	}

	var req models.InviteRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		utils.WriteMessageResponse(w, http.StatusBadRequest, "Email is required")
		return
	}

	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
		return
	}

	member, err := isAnyMember(h.db, orgID, user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if member {
		utils.WriteMessageResponse(w, http.StatusBadRequest, "User is already an employee of this organization")
		return
	}

	inv := &models.Invitation{
		UserID:         user.ID,
		OrganizationID: orgID,
		Status:         false,
		UserResponse:   nil,
	}
	if err := h.db.CreateInvitation(inv); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteMessageResponse(w, http.StatusBadRequest, "Invitation already sent")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusCreated, "Invitation sent successfully")
}

// AcceptInvitation handles POST /organizations/{orgID}/accept-invitation.
// A user already present in any role set is rejected; otherwise the
// invitation row is marked accepted and the user joins as employee.
func (h *InvitationsHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	user, err := h.db.GetUserByEmail(identity.Email)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
		return
	}

	member, err := isAnyMember(h.db, orgID, user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if member {
		utils.WriteMessageResponse(w, http.StatusForbidden, "User is already part of the organization")
		return
	}

	inv, err := h.db.GetInvitation(user.ID, orgID)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Invitation not found")
		return
	}

	// Membership is granted before the invitation row is marked: an
	// accepted row always implies the user is in the organization.
	if err := h.db.AddMember(orgID, user.ID, models.RoleEmployee); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	accepted := true
	inv.Status = true
	inv.UserResponse = &accepted
	if err := h.db.UpdateInvitation(inv); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Invitation accepted successfully")
}

// DeclineInvitation handles POST /organizations/{orgID}/decline-invitation.
// Only user_response changes; the status flag is untouched.
func (h *InvitationsHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.db.GetUserByEmail(identity.Email)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
		return
	}

	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	inv, err := h.db.GetInvitation(user.ID, orgID)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Invitation not found")
		return
	}

	declined := false
	inv.UserResponse = &declined
	if err := h.db.UpdateInvitation(inv); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Invitation declined successfully")
}

// DeletePendingInvitation handles DELETE /delete-pending-invitation.
// The delete is idempotent: an absent row is not an error.
func (h *InvitationsHandler) DeletePendingInvitation(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := parseMembershipQuery(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteInvitation(userID, orgID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Pending invitation deleted successfully")
}

// UserInvitations handles GET /users/{userID}/invitations
func (h *InvitationsHandler) UserInvitations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if _, err := h.db.GetUserByID(userID); err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "User not found")
		return
	}

	invitations, err := h.db.ListUserInvitations(userID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, invitations)
}

// OrganizationInvitations handles GET /organizations/{orgID}/invitations
func (h *InvitationsHandler) OrganizationInvitations(w http.ResponseWriter, r *http.Request) {
	orgID, err := parseIDParam(r, "orgID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid organization id")
		return
	}

	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	invitations, err := h.db.ListOrganizationInvitations(orgID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, invitations)
}
