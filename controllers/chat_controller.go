package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/services"
)

// SendMessageRequest represents the JSON body for a text-only message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ScheduleMeetingRequest represents the request body for setting the meeting time
type ScheduleMeetingRequest struct {
	MeetingTime *time.Time `json:"meeting_time"`
}

// ListMessages handles GET /api/v1/chat/messages/:consultation_id - oldest first
func ListMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	consultationID, ok := idParam(c, "consultation_id")
	if !ok {
		return
	}

	messages, err := services.NewChatService(config.GetDB()).List(c.Request.Context(), user, consultationID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, messages)
}

// SendMessage handles POST /api/v1/chat/messages/:consultation_id/send.
// JSON bodies carry text only; multipart forms may add a file.
func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	consultationID, ok := idParam(c, "consultation_id")
	if !ok {
		return
	}

	var content string
	if isMultipart(c) {
		content = c.PostForm("content")
	} else if c.Request.ContentLength != 0 {
		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
			return
		}
		content = req.Content
	}

	message, err := services.NewChatService(config.GetDB()).
		Append(c.Request.Context(), user, consultationID, content, formFile(c, "file"))
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, message)
}

// ScheduleMeeting handles PATCH /api/v1/chat/schedule/:consultation_id
func ScheduleMeeting(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	consultationID, ok := idParam(c, "consultation_id")
	if !ok {
		return
	}

	var req ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "meeting_time must be an RFC 3339 timestamp")
		return
	}
	var at time.Time
	if req.MeetingTime != nil {
		at = *req.MeetingTime
	}

	meeting, err := services.NewMeetingService(config.GetDB()).Schedule(c.Request.Context(), user, consultationID, at)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, meeting)
}

// GetMeeting handles GET /api/v1/chat/schedule/:consultation_id
func GetMeeting(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	consultationID, ok := idParam(c, "consultation_id")
	if !ok {
		return
	}

	meeting, err := services.NewMeetingService(config.GetDB()).Get(c.Request.Context(), user, consultationID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, meeting)
}

// GetPartnerName handles GET /api/v1/chat/partner-name/:consultation_id
func GetPartnerName(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	consultationID, ok := idParam(c, "consultation_id")
	if !ok {
		return
	}

	name, err := services.NewChatService(config.GetDB()).PartnerName(c.Request.Context(), user, consultationID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"name": name})
}
