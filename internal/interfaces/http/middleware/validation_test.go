package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/assetflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quantityInput struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Role      string `json:"role" binding:"omitempty,assetflow_role"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req quantityInput
		if err := c.ShouldBindJSON(&req); err != nil {
			if IsValidationError(err) {
				HandleValidationError(c, err)
				return
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError_FieldsUseJSONNames(t *testing.T) {
	w := postJSON(validationRouter(), `{"product_id": "nope", "quantity": 0}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	require.Len(t, resp.Error.Fields, 2)

	fields := map[string]string{}
	for _, f := range resp.Error.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Invalid UUID format", fields["product_id"])
	assert.Equal(t, "This field is required", fields["quantity"])
}

func TestHandleValidationError_RoleTag(t *testing.T) {
	router := validationRouter()

	w := postJSON(router, `{"product_id": "8a4c2e6f-1b3d-4f5a-9c7e-2d4f6a8b0c1e", "quantity": 2, "role": "guest"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "employee monitor admin")

	w = postJSON(router, `{"product_id": "8a4c2e6f-1b3d-4f5a-9c7e-2d4f6a8b0c1e", "quantity": 2, "role": "monitor"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIsValidationError_DecodeErrors(t *testing.T) {
	w := postJSON(validationRouter(), `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Email    string `validate:"omitempty,email"`
		Min      string `validate:"min=5"`
		OneOf    string `validate:"omitempty,oneof=a b c"`
	}

	err := validator.New().Struct(sample{Email: "invalid", Min: "ab", OneOf: "d"})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Invalid email format", got["Email"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be one of: a b c", got["OneOf"])
}
