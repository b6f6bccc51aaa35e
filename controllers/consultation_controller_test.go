package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConsultation(t *testing.T) {
	db := setupControllerTest(t)
	client := testutil.CreateClient(t, db, "client@example.com", "Nimal Perera", 1)
	broke := testutil.CreateClient(t, db, "broke@example.com", "Broke Client", 0)
	lawyerUser, lawyerProfile := testutil.CreateLawyer(t, db, "lawyer@example.com", "Anura Silva", models.ExpertiseCivil, true)
	requested := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		user        models.User
		body        gin.H
		wantStatus  int
		wantCode    string
		wantBalance int
	}{
		{
			name:        "client with no points",
			user:        broke,
			body:        gin.H{"lawyer": lawyerProfile.ID, "title": "Land dispute", "case_type": "property", "requested_time": requested},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INSUFFICIENT_POINTS",
			wantBalance: 0,
		},
		{
			name:        "unknown lawyer",
			user:        client,
			body:        gin.H{"lawyer": 9999, "title": "Land dispute", "case_type": "property", "requested_time": requested},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_LAWYER",
			wantBalance: 1,
		},
		{
			name:        "missing title",
			user:        client,
			body:        gin.H{"lawyer": lawyerProfile.ID, "case_type": "property", "requested_time": requested},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "MISSING_FIELDS",
			wantBalance: 1,
		},
		{
			name:        "malformed time",
			user:        client,
			body:        gin.H{"lawyer": lawyerProfile.ID, "title": "Land dispute", "case_type": "property", "requested_time": "tomorrow"},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantBalance: 1,
		},
		{
			name:        "lawyers cannot book",
			user:        lawyerUser,
			body:        gin.H{"lawyer": lawyerProfile.ID, "title": "Land dispute", "case_type": "property", "requested_time": requested},
			wantStatus:  http.StatusForbidden,
			wantCode:    "FORBIDDEN",
			wantBalance: 1,
		},
		{
			name:        "booking debits one point",
			user:        client,
			body:        gin.H{"lawyer": lawyerProfile.ID, "title": "Land dispute", "case_type": "property", "requested_time": requested},
			wantStatus:  http.StatusCreated,
			wantBalance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/consultations/create", asUser(tt.user), CreateConsultation)

			w := performJSON(router, http.MethodPost, "/consultations/create", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var consultation models.ConsultationRequest
			env := decode(t, w, &consultation)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, env.Error.Code)
			} else {
				assert.Equal(t, models.StatusPending, consultation.Status)
				assert.Equal(t, lawyerUser.ID, consultation.LawyerID)
				assert.Equal(t, "Nimal Perera", consultation.ClientName)
				assert.Equal(t, "Anura Silva", consultation.LawyerName)
				assert.True(t, requested.Equal(consultation.RequestedTime))
			}

			balanceOwner := client
			if tt.user.ID == broke.ID {
				balanceOwner = broke
			}
			assert.Equal(t, tt.wantBalance, testutil.Balance(t, db, balanceOwner.ID))
		})
	}

	notifications := testutil.Notifications(t, db, lawyerUser.ID)
	require.Len(t, notifications, 1, "only the successful booking notifies the lawyer")
	assert.Equal(t, "New consultation request from Nimal Perera.", notifications[0].Message)
}

func TestUpdateConsultation(t *testing.T) {
	db := setupControllerTest(t)
	client := testutil.CreateClient(t, db, "client@example.com", "Client", 0)
	lawyer, _ := testutil.CreateLawyer(t, db, "lawyer@example.com", "Anura Silva", models.ExpertiseCivil, true)
	other, _ := testutil.CreateLawyer(t, db, "other@example.com", "Other", models.ExpertiseCivil, true)
	consultation := testutil.CreateConsultation(t, db, client, lawyer, models.StatusPending)
	path := "/consultations/update/" + uintPath(consultation.ID)

	patch := func(user models.User, body interface{}) (int, envelope, models.ConsultationRequest) {
		router := gin.New()
		router.PATCH("/consultations/update/:id", asUser(user), UpdateConsultation)
		w := performJSON(router, http.MethodPatch, path, body)
		var updated models.ConsultationRequest
		env := decode(t, w, &updated)
		return w.Code, env, updated
	}

	code, env, _ := patch(other, gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, env, _ = patch(client, gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusForbidden, code, "clients cannot decide their own requests")

	code, env, _ = patch(lawyer, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env, _ = patch(lawyer, gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_STATUS", env.Error.Code)

	code, env, _ = patch(lawyer, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	code, _, updated := patch(lawyer, gin.H{"status": "rejected"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, 1, testutil.Balance(t, db, client.ID), "rejection refunds the booking")

	code, _, _ = patch(lawyer, gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, testutil.Balance(t, db, client.ID), "a repeated rejection refunds nothing")

	notifications := testutil.Notifications(t, db, client.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.SeverityDanger, notifications[0].Severity)

	w := performJSON(func() *gin.Engine {
		r := gin.New()
		r.PATCH("/consultations/update/:id", asUser(lawyer), UpdateConsultation)
		return r
	}(), http.MethodPatch, "/consultations/update/9999", gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsultationListsAndDetails(t *testing.T) {
	db := setupControllerTest(t)
	client := testutil.CreateClient(t, db, "client@example.com", "Nimal Perera", 0)
	stranger := testutil.CreateClient(t, db, "stranger@example.com", "Stranger", 0)
	admin := testutil.CreateAdmin(t, db, "admin@example.com")
	lawyer, _ := testutil.CreateLawyer(t, db, "lawyer@example.com", "Anura Silva", models.ExpertiseCivil, true)
	first := testutil.CreateConsultation(t, db, client, lawyer, models.StatusPending)
	second := testutil.CreateConsultation(t, db, client, lawyer, models.StatusAccepted)

	router := gin.New()
	router.GET("/lawyer/:as", func(c *gin.Context) {
		users := map[string]models.User{"lawyer": lawyer, "client": client, "stranger": stranger, "admin": admin}
		c.Set("current_user", ptr(users[c.Param("as")]))
	}, ListLawyerConsultations)
	router.GET("/client/:as", func(c *gin.Context) {
		users := map[string]models.User{"client": client, "stranger": stranger}
		c.Set("current_user", ptr(users[c.Param("as")]))
	}, ListClientConsultations)

	t.Run("lawyer list is newest first and annotated", func(t *testing.T) {
		w := performJSON(router, http.MethodGet, "/lawyer/lawyer", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var items []models.ConsultationRequest
		decode(t, w, &items)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Equal(t, first.ID, items[1].ID)
		assert.Equal(t, "Nimal Perera", items[0].ClientName)
		assert.Equal(t, "client@example.com", items[0].ClientEmail)
	})

	t.Run("client list only shows own requests", func(t *testing.T) {
		w := performJSON(router, http.MethodGet, "/client/client", nil)
		var items []models.ConsultationRequest
		decode(t, w, &items)
		assert.Len(t, items, 2)

		w = performJSON(router, http.MethodGet, "/client/stranger", nil)
		items = nil
		decode(t, w, &items)
		assert.Empty(t, items)
	})

	details := []struct {
		name       string
		user       models.User
		wantStatus int
	}{
		{"client participant", client, http.StatusOK},
		{"lawyer participant", lawyer, http.StatusOK},
		{"admin", admin, http.StatusOK},
		{"stranger", stranger, http.StatusForbidden},
	}
	for _, tt := range details {
		t.Run("details as "+tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/details/:id", asUser(tt.user), GetConsultation)
			w := performJSON(r, http.MethodGet, "/details/"+uintPath(first.ID), nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestPointsEndpoints(t *testing.T) {
	db := setupControllerTest(t)
	client := testutil.CreateClient(t, db, "client@example.com", "Client", 3)
	lawyer, _ := testutil.CreateLawyer(t, db, "lawyer@example.com", "Lawyer", models.ExpertiseCivil, true)

	type points struct {
		Balance int    `json:"balance"`
		Email   string `json:"email"`
	}

	tests := []struct {
		name        string
		user        models.User
		method      string
		wantBalance int
	}{
		{"client reads balance", client, http.MethodGet, 3},
		{"client top-up adds ten", client, http.MethodPost, 13},
		{"lawyer without a row starts at zero", lawyer, http.MethodGet, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/points", asUser(tt.user), GetPoints)
			router.POST("/points", asUser(tt.user), TopUpPoints)

			w := performJSON(router, tt.method, "/points", nil)
			require.Equal(t, http.StatusOK, w.Code)
			var got points
			decode(t, w, &got)
			assert.Equal(t, tt.wantBalance, got.Balance)
			assert.Equal(t, tt.user.Email, got.Email)
		})
	}
}

func TestListNotifications(t *testing.T) {
	db := setupControllerTest(t)
	client := testutil.CreateClient(t, db, "client@example.com", "Client", 0)
	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, db.Create(&models.Notification{UserID: client.ID, Message: msg, Severity: models.SeverityInfo}).Error)
	}

	router := gin.New()
	router.GET("/notifications", asUser(client), ListNotifications)

	w := performJSON(router, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications []models.Notification
	decode(t, w, &notifications)
	require.Len(t, notifications, 3)
	assert.Equal(t, "third", notifications[0].Message)
	assert.Equal(t, "first", notifications[2].Message)
}

func ptr(u models.User) *models.User {
	return &u
}
