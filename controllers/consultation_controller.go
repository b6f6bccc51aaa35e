package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/services"
)

// CreateConsultationRequest represents the request body for booking a lawyer.
// Lawyer is the lawyer's profile id as listed by GET /users/lawyers.
type CreateConsultationRequest struct {
	Lawyer        uint      `json:"lawyer"`
	Title         string    `json:"title"`
	CaseType      string    `json:"case_type"`
	RequestedTime time.Time `json:"requested_time"`
}

// UpdateConsultationRequest represents the request body for a status change
type UpdateConsultationRequest struct {
	Status models.ConsultationStatus `json:"status" binding:"required"`
}

// CreateConsultation handles POST /api/v1/consultations/create - books a consultation for one point
func CreateConsultation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	consultation, err := services.NewConsultationService(config.GetDB()).Create(c.Request.Context(), user, services.CreateConsultationInput{
		LawyerProfileID: req.Lawyer,
		Title:           req.Title,
		CaseType:        req.CaseType,
		RequestedTime:   req.RequestedTime,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, consultation)
}

// ListLawyerConsultations handles GET /api/v1/consultations/lawyer - requests addressed to the caller
func ListLawyerConsultations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	consultations, err := services.NewConsultationService(config.GetDB()).ListForLawyer(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, consultations)
}

// ListClientConsultations handles GET /api/v1/consultations/client - requests made by the caller
func ListClientConsultations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	consultations, err := services.NewConsultationService(config.GetDB()).ListForClient(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, consultations)
}

// UpdateConsultation handles PATCH /api/v1/consultations/update/:id - changes the status
func UpdateConsultation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "status is required")
		return
	}

	consultation, err := services.NewConsultationService(config.GetDB()).Transition(c.Request.Context(), user, id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, consultation)
}

// GetConsultation handles GET /api/v1/consultations/details/:id
func GetConsultation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	consultation, err := services.NewConsultationService(config.GetDB()).Get(c.Request.Context(), user, id)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, consultation)
}

// GetPoints handles GET /api/v1/consultations/points - the caller's balance
func GetPoints(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	points, err := services.NewLedger(config.GetDB()).GetOrCreate(c.Request.Context(), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"balance": points.Balance, "email": user.Email})
}

// TopUpPoints handles POST /api/v1/consultations/points - always adds services.TopUpAmount
func TopUpPoints(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	points, err := services.NewLedger(config.GetDB()).TopUp(c.Request.Context(), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"balance": points.Balance, "email": user.Email})
}

// ListNotifications handles GET /api/v1/consultations/notifications - newest first
func ListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	notifications, err := services.NewNotificationService(config.GetDB()).List(c.Request.Context(), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, notifications)
}
