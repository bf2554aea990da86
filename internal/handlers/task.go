package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/middleware"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// Complete claims the given task, or a random open one when taskId is empty.
func (h *TaskHandler) Complete(c *gin.Context) {
	var req models.CompleteTaskRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"details": err.Error(),
		})
		return
	}

	claim, err := h.tasks.Complete(c.Request.Context(), c.GetString(middleware.ContextUserID), req.TaskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"taskId":         claim.Task.ID,
		"description":    claim.Task.Description,
		"reward":         claim.Reward,
		"transaction_id": claim.TransactionID,
	})
}
