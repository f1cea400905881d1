// controllers/template.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venue-admin-backend/repository"
	"venue-admin-backend/utils"
)

// UpdateTemplateInput defines the expected JSON structure
type UpdateTemplateInput struct {
	MessageContent string `json:"message_content" binding:"required"`
}

type TemplateController struct {
	repo   repository.TemplateRepository
	logger *zap.Logger
}

func NewTemplateController(repo repository.TemplateRepository, logger *zap.Logger) *TemplateController {
	return &TemplateController{repo: repo, logger: logger}
}

// GetTemplates lists every template ordered by product type and trigger kind.
func (tc *TemplateController) GetTemplates(c *gin.Context) {
	templates, err := tc.repo.List(c.Request.Context())
	if err != nil {
		tc.logger.Error("failed to list templates", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// UpdateTemplate replaces a template body. Jobs already sent keep the text they were sent with.
func (tc *TemplateController) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input UpdateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if strings.TrimSpace(input.MessageContent) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Message content cannot be empty")
		return
	}

	template, err := tc.repo.UpdateContent(c.Request.Context(), id, input.MessageContent)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
			return
		}
		tc.logger.Error("failed to update template", zap.String("id", id.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, template)
}
