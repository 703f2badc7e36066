package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/middleware"
	"org-task-backend/pkg/models"
	"org-task-backend/pkg/utils"
)

// AuthHandler serves signup, signin and current-user endpoints
type AuthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	jwt    *utils.JWTService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(cfg *config.Config, db database.DatabaseInterface) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		db:     db,
		jwt:    utils.NewJWTService(cfg.JWTSecret, time.Duration(cfg.TokenExpiryHours)*time.Hour),
	}
}

// Signup handles POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: string(hash),
	}
	if err := h.db.CreateUser(user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteMessageResponse(w, http.StatusBadRequest, "Email already registered")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to create user")
		return
	}

	utils.WriteMessageResponse(w, http.StatusCreated, "User created!")
}

// Signin handles POST /signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		utils.WriteMessageResponse(w, http.StatusUnauthorized, "Invalid credentials!")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.WriteMessageResponse(w, http.StatusUnauthorized, "Invalid credentials!")
		return
	}

	token, _, err := h.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate token")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, models.SigninResponse{AccessToken: token})
}

// CurrentUser handles GET /user: resolves the token identity to a user
// record with its organization id lists.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.buildProfile(user)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, profile)
}

// ListUsersByIDs handles GET /users?user_ids=1,2,3
func (h *AuthHandler) ListUsersByIDs(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("user_ids")
	if param == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "user_ids query parameter is required")
		return
	}

	ids := []int64{}
	for _, part := range strings.Split(param, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "user_ids must be a comma-separated list of integers")
			return
		}
		ids = append(ids, id)
	}

	users, err := h.db.ListUsersByIDs(ids)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	profiles := []models.UserProfile{}
	for i := range users {
		profile, err := h.buildProfile(&users[i])
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, err.Error())
			return
		}
		profiles = append(profiles, *profile)
	}

	utils.WriteJSONResponse(w, http.StatusOK, profiles)
}

// HealthCheck handles GET /
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":      "ok",
		"environment": h.config.Environment,
		"time":        time.Now().Format(time.RFC3339),
	}

	if err := h.db.HealthCheck(); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, status)
		return
	}
	status["database"] = "ok"

	utils.WriteJSONResponse(w, http.StatusOK, status)
}

// buildProfile assembles the serialized user with owning/working ids
func (h *AuthHandler) buildProfile(user *models.User) (*models.UserProfile, error) {
	owning, err := h.db.ListOwnedOrganizations(user.ID)
	if err != nil {
		return nil, err
	}
	working, err := h.db.ListWorkingOrganizations(user.ID)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		ID:                   user.ID,
		Email:                user.Email,
		OrganizationsOwning:  []int64{},
		OrganizationsWorking: []int64{},
	}
	for _, org := range owning {
		profile.OrganizationsOwning = append(profile.OrganizationsOwning, org.ID)
	}
	for _, org := range working {
		profile.OrganizationsWorking = append(profile.OrganizationsWorking, org.ID)
	}
	return profile, nil
}
