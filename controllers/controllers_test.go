package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/services"
	"github.com/legalconnect/legalconnect-api/testutil"
	"github.com/legalconnect/legalconnect-api/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupControllerTest installs a fresh database, test configuration, local file storage
// in a temp dir and a recording notification publisher, restoring the globals afterwards.
func setupControllerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	originalDB := config.GetDB()
	config.SetDB(db)

	originalConfig := config.GetConfig()
	config.SetConfig(&config.Config{
		GoEnv:       "test",
		JWTSecret:   "test-secret",
		JWTIssuer:   "legalconnect-api",
		JWTAudience: "legalconnect-clients",
		TokenTTL:    time.Hour,
	})

	originalUploadDir := utils.UploadDir
	utils.UploadDir = t.TempDir()
	originalStorage := services.GetFileStorage()
	services.SetFileStorage(services.NewLocalStorage(utils.UploadDir))

	originalIndex := services.GetLawyerIndex()
	services.SetLawyerIndex(nil)

	originalPublisher := services.GetNotificationPublisher()
	services.NewMockPublisher().SetAsMockForTesting()

	t.Cleanup(func() {
		config.SetDB(originalDB)
		config.SetConfig(originalConfig)
		utils.UploadDir = originalUploadDir
		services.SetFileStorage(originalStorage)
		services.SetLawyerIndex(originalIndex)
		services.SetNotificationPublisher(originalPublisher)
	})

	return db
}

// asUser stands in for the auth middleware chain
func asUser(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("current_user", &user)
		c.Next()
	}
}

func performJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// performMultipart sends fields and files (form name -> file name -> content) as multipart/form-data
func performMultipart(t *testing.T, router http.Handler, method, path string, fields map[string]string, files map[string]map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for field, named := range files {
		for filename, content := range named {
			part, err := writer.CreateFormFile(field, filename)
			require.NoError(t, err)
			_, err = part.Write(content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Response should be valid JSON: %s", w.Body.String())
	if data != nil && env.Success {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func uintPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
