package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lakeview-records-api/internal/middleware"
	"github.com/noah-isme/lakeview-records-api/internal/models"
)

func TestResultHandlerUploadRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewResultHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/results", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Upload(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResultHandlerUploadInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewResultHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/results", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer", Role: models.RoleExamOfficer})

	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultHandlerCourseResultsRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewResultHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/crs-1/results", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "crs-1"}}

	handler.CourseResults(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultHandlerExportRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewResultHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/crs-1/results/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "crs-1"}}

	handler.ExportCSV(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
