// controllers/helpers.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"stayhub-backend/apperrors"
	"stayhub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithError(c, http.StatusBadRequest, verr.Error())
	case apperrors.IsNotFound(err):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrScheduleInactive):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// boolQuery reads an optional boolean query parameter.
func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" parameter")
		return nil, false
	}
	return &v, true
}
