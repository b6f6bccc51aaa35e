package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/services"
)

// RegisterRequest represents the request body for creating an account.
// It binds from JSON or from a multipart form carrying the optional uploads.
type RegisterRequest struct {
	Email       string      `json:"email" form:"email" binding:"required"`
	Password    string      `json:"password" form:"password" binding:"required"`
	Role        models.Role `json:"role" form:"role" binding:"required"`
	FullName    string      `json:"full_name" form:"full_name"`
	PhoneNumber string      `json:"phone_number" form:"phone_number"`
	NICNumber   string      `json:"nic_number" form:"nic_number"`
	Expertise   string      `json:"expertise" form:"expertise"`
	Location    string      `json:"location" form:"location"`
}

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ClientProfileRequest holds the client profile fields a JSON update may change
type ClientProfileRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	NICNumber   *string `json:"nic_number"`
}

// LawyerProfileRequest holds the lawyer profile fields a JSON update may change
type LawyerProfileRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	NICNumber   *string `json:"nic_number"`
	Expertise   *string `json:"expertise"`
	Location    *string `json:"location"`
}

func tokenService() *services.TokenService {
	cfg := config.GetConfig()
	if cfg == nil {
		return services.NewTokenService("", "", "", 0)
	}
	return services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
}

// Register handles POST /api/v1/users/register - creates a client or lawyer account
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
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

	user, err := services.NewAccountService(config.GetDB()).Register(c.Request.Context(), services.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		FullName:       req.FullName,
		PhoneNumber:    req.PhoneNumber,
		NICNumber:      req.NICNumber,
		Expertise:      req.Expertise,
		Location:       req.Location,
		Qualifications: formFile(c, "qualifications"),
		ProfilePicture: formFile(c, "profile_picture"),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, user)
}

// Login handles POST /api/v1/users/login - exchanges credentials for a bearer token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	user, err := services.NewAccountService(config.GetDB()).Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	token, err := tokenService().Issue(user)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_at":   token.ExpiresAt,
		"user":         user,
	})
}

// GetCurrentUser handles GET /api/v1/users/me - returns the caller with their profile
func GetCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	accounts := services.NewAccountService(config.GetDB())
	ctx := c.Request.Context()

	var profile interface{}
	var err error
	switch user.Role {
	case models.RoleClient:
		profile, err = accounts.GetClientProfile(ctx, user)
	case models.RoleLawyer:
		profile, err = accounts.GetLawyerProfile(ctx, user)
	}
	if se, ok := services.AsServiceError(err); ok && se.Kind == services.KindNotFound {
		profile, err = nil, nil
	}
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"user":    user,
		"profile": profile,
	})
}

// GetClientProfile handles GET /api/v1/users/client-profile
func GetClientProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := services.NewAccountService(config.GetDB()).GetClientProfile(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// UpdateClientProfile handles PUT /api/v1/users/client-profile (JSON or multipart with profile_picture)
func UpdateClientProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var in services.ClientProfileUpdate
	if isMultipart(c) {
		in = services.ClientProfileUpdate{
			FullName:       optionalForm(c, "full_name"),
			PhoneNumber:    optionalForm(c, "phone_number"),
			NICNumber:      optionalForm(c, "nic_number"),
			ProfilePicture: formFile(c, "profile_picture"),
		}
	} else {
		var req ClientProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
			return
		}
		in = services.ClientProfileUpdate{FullName: req.FullName, PhoneNumber: req.PhoneNumber, NICNumber: req.NICNumber}
	}

	profile, err := services.NewAccountService(config.GetDB()).UpdateClientProfile(c.Request.Context(), user, in)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// GetLawyerProfile handles GET /api/v1/users/lawyer-profile
func GetLawyerProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := services.NewAccountService(config.GetDB()).GetLawyerProfile(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// UpdateLawyerProfile handles PUT /api/v1/users/lawyer-profile (JSON or multipart with uploads)
func UpdateLawyerProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var in services.LawyerProfileUpdate
	if isMultipart(c) {
		in = services.LawyerProfileUpdate{
			FullName:       optionalForm(c, "full_name"),
			PhoneNumber:    optionalForm(c, "phone_number"),
			NICNumber:      optionalForm(c, "nic_number"),
			Expertise:      optionalForm(c, "expertise"),
			Location:       optionalForm(c, "location"),
			Qualifications: formFile(c, "qualifications"),
			ProfilePicture: formFile(c, "profile_picture"),
		}
	} else {
		var req LawyerProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
			return
		}
		in = services.LawyerProfileUpdate{
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			NICNumber:   req.NICNumber,
			Expertise:   req.Expertise,
			Location:    req.Location,
		}
	}

	profile, err := services.NewAccountService(config.GetDB()).UpdateLawyerProfile(c.Request.Context(), user, in)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// ListLawyers handles GET /api/v1/users/lawyers?search=&expertise= - approved lawyers for clients
func ListLawyers(c *gin.Context) {
	lawyers, err := services.NewAccountService(config.GetDB()).
		SearchLawyers(c.Request.Context(), c.Query("search"), c.Query("expertise"))
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, lawyers)
}

// ListUnapprovedLawyers handles GET /api/v1/users/unapproved-lawyers (admin)
func ListUnapprovedLawyers(c *gin.Context) {
	listLawyersByApproval(c, false)
}

// ListApprovedLawyers handles GET /api/v1/users/approved-lawyers (admin)
func ListApprovedLawyers(c *gin.Context) {
	listLawyersByApproval(c, true)
}

func listLawyersByApproval(c *gin.Context, approved bool) {
	lawyers, err := services.NewAccountService(config.GetDB()).ListLawyers(c.Request.Context(), approved)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, lawyers)
}

// ApproveLawyer handles POST /api/v1/users/approve-lawyer/:user_id (admin)
func ApproveLawyer(c *gin.Context) {
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	profile, err := services.NewAccountService(config.GetDB()).ApproveLawyer(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}
