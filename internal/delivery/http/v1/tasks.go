package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-taskdesk/internal/models"
	"github.com/adanyl0v/go-taskdesk/internal/services"
)

func (h *handlerImpl) HandleListEmployees(c *gin.Context) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	employees, err := h.tasks.ListEmployees(c, caller)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to list employees")
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Data: employees})
}

func (h *handlerImpl) HandleListAllTasks(c *gin.Context) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListAllTasks(c, caller)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Data: tasks})
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	EndDate     string `json:"endDate"`
	Priority    string `json:"priority"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	caller, ok := h.authorizedCaller(c, services.AuthorizeAdmin)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(msgInvalidRequestBody))
		return
	}

	task, err := h.tasks.CreateTask(c, caller, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		EndDate:     req.EndDate,
		Priority:    req.Priority,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, envelope{
		Success: true,
		Message: "Task created successfully",
		Data:    task,
	})
}

func (h *handlerImpl) HandleListOwnTasks(c *gin.Context) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListOwnTasks(c, caller)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to list own tasks")
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Data: tasks})
}

type updateTaskStatusRequest struct {
	Status string `json:"status"`
}

func (h *handlerImpl) HandleUpdateOwnTaskStatus(c *gin.Context) {
	caller, ok := h.authorizedCaller(c, services.AuthorizeEmployee)
	if !ok {
		return
	}

	var req updateTaskStatusRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(msgInvalidRequestBody))
		return
	}

	task, err := h.tasks.UpdateOwnTaskStatus(c, caller, services.UpdateTaskStatusParams{
		TaskID: c.Param("id"),
		Status: req.Status,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to update task status")
		return
	}

	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Task status updated successfully",
		Data:    task,
	})
}

func (h *handlerImpl) HandleGetStats(c *gin.Context) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	stats, err := h.tasks.GetStats(c, caller)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to get stats")
		return
	}

	c.JSON(http.StatusOK, envelope{Success: true, Data: stats})
}

// authorizedCaller rejects a caller of the wrong role before the request
// body is read.
func (h *handlerImpl) authorizedCaller(c *gin.Context, authorize func(models.Caller) error) (models.Caller, bool) {
	caller, ok := h.callerFromContext(c)
	if !ok {
		return nil, false
	}

	err := authorize(caller)
	if err != nil {
		h.abortWithServiceError(c, err, "caller is not allowed")
		return nil, false
	}
	return caller, true
}

// abortWithServiceError logs expected client failures at warn level and
// everything that ends in a 500 at error level.
func (h *handlerImpl) abortWithServiceError(c *gin.Context, err error, msg string) {
	apiErr := newServiceError(err)

	event := h.logger.Warn()
	if apiErr.Code >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.
		Err(err).
		Int("status", apiErr.Code).
		Str("path", c.FullPath()).
		Msg(msg)

	abort(c, apiErr)
}
