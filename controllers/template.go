// controllers/template.go
package controllers

import (
	"net/http"

	"stayhub-backend/services"
	"stayhub-backend/utils"

	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	Templates *services.TemplateService
}

type PreviewTemplateInput struct {
	Variables map[string]any `json:"variables"`
}

func (tc *TemplateController) ListTemplates(c *gin.Context) {
	active, ok := boolQuery(c, "active")
	if !ok {
		return
	}

	templates, err := tc.Templates.List(c.Request.Context(), c.Query("category"), active)
	if err != nil {
		respondError(c, err, "Failed to retrieve templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (tc *TemplateController) GetTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	template, err := tc.Templates.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve template")
		return
	}
	c.JSON(http.StatusOK, template)
}

func (tc *TemplateController) CreateTemplate(c *gin.Context) {
	var input services.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, err := tc.Templates.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create template")
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (tc *TemplateController) UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input services.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, err := tc.Templates.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, template)
}

func (tc *TemplateController) DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := tc.Templates.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template deleted"})
}

func (tc *TemplateController) PreviewTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input PreviewTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	preview, err := tc.Templates.Preview(c.Request.Context(), id, input.Variables)
	if err != nil {
		respondError(c, err, "Failed to render template")
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ListVariables documents the variables available to every template.
func (tc *TemplateController) ListVariables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variables": services.AvailableVariables})
}
