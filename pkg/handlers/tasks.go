package handlers

import (
	"net/http"
	"strings"
	"time"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/middleware"
	"org-task-backend/pkg/models"
	"org-task-backend/pkg/utils"
)

// TasksHandler serves the task endpoints
type TasksHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

// NewTasksHandler creates a tasks handler
func NewTasksHandler(cfg *config.Config, db database.DatabaseInterface) *TasksHandler {
	return &TasksHandler{config: cfg, db: db}
}

// completionDateFormats are the accepted layouts for the completion date
var completionDateFormats = []string{
	time.RFC3339,
	"2006-01-02",
}

func parseCompletionDate(value string) (time.Time, bool) {
	for _, layout := range completionDateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AddTask handles POST /organizations/{orgID}/tasks
func (h *TasksHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	orgID, err := parseIDParam(r, "orgID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid organization id")
		return
	}

	var req models.AddTaskRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Both title and description are required.")
		return
	}

	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Organization not found.")
		return
	}

	task := &models.Task{
		OrganizationID: orgID,
		Title:          req.Title,
		Description:    req.Description,
	}
	if err := h.db.CreateTask(task); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusCreated, "Task added to the organization successfully")
}

// ListTasks handles GET /organizations/{orgID}/tasks
func (h *TasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	orgID, err := parseIDParam(r, "orgID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid organization id")
		return
	}

	if _, err := h.db.GetOrganization(orgID); err != nil {
		utils.WriteMessageResponse(w, http.StatusNotFound, "Organization not found")
		return
	}

	tasks, err := h.db.ListTasksByOrganization(orgID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, tasks)
}

// CompleteTask handles PUT /complete-task/{taskID}: sets the completed
// flag, the completer reference (id + email snapshot) and the timestamp
// together.
func (h *TasksHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Task not found")
		return
	}

	user, err := h.db.GetUserByEmail(identity.Email)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	var req models.CompleteTaskRequest
	if err := utils.ParseJSONBody(r, &req); err != nil || req.Date == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid data format")
		return
	}

	completedAt, ok := parseCompletionDate(req.Date)
	if !ok {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid data format")
		return
	}

	if task.Completed {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Task is already completed")
		return
	}

	task.Completed = true
	task.CompletedBy = &user.ID
	task.CompletedByEmail = &user.Email
	task.CompletedAt = &completedAt

	if err := h.db.UpdateTask(task); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Task marked as completed")
}

// UncheckTask handles PUT /uncheck-task/{taskID}: clears all four
// completion fields together.
func (h *TasksHandler) UncheckTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Task not found")
		return
	}

	if !task.Completed {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Task is not completed")
		return
	}

	task.Completed = false
	task.CompletedBy = nil
	task.CompletedByEmail = nil
	task.CompletedAt = nil

	if err := h.db.UpdateTask(task); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Task marked as not completed")
}

// DeleteTask handles DELETE /delete-task/{taskID}
func (h *TasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	if _, err := h.db.GetTask(taskID); err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.db.DeleteTask(taskID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Task deleted successfully")
}
