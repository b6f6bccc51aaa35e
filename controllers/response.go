package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/middleware"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/services"
	"github.com/legalconnect/legalconnect-api/utils"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// statusFor maps a service error kind onto its HTTP status
func statusFor(se *services.ServiceError) int {
	switch se.Kind {
	case services.KindValidation, services.KindInsufficientBalance:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnauthorized:
		if se.Code == services.ErrInvalidCredentials.Code {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// handleError renders err; anything that is not a caller error is attached for Sentry and hidden
func handleError(c *gin.Context, err error) {
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	if se, ok := services.AsServiceError(err); ok {
		respondError(c, statusFor(se), se.Code, se.Message)
		return
	}

	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

// currentUser returns the user loaded by middleware.LoadCurrentUser, writing a 401 when absent
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// idParam parses a positive numeric path parameter, writing a 400 when malformed
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}

// formFile returns the named upload, or nil when the request carries none
func formFile(c *gin.Context, name string) *multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	fh, err := c.FormFile(name)
	if err != nil {
		return nil
	}
	return fh
}

// optionalForm returns a pointer to a form value, or nil when the field was not sent
func optionalForm(c *gin.Context, name string) *string {
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}
