package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ProductID string `json:"productId" binding:"required,productref" validate:"required,productref"`
	Quantity  int    `json:"quantity" binding:"required,min=1" validate:"required,min=1"`
	Address   string `json:"address" binding:"max=5" validate:"max=5"`
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	RegisterValidations(v)

	tests := []struct {
		name      string
		productID string
		wantErr   bool
	}{
		{"plain id", "prod-1", false},
		{"object id", "64b7f0c2a1b2c3d4e5f60718", false},
		{"spaces", "prod 1", true},
		{"path characters", "../etc", true},
		{"too long", strings.Repeat("p", 65), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(sampleRequest{ProductID: tt.productID, Quantity: 1})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := validator.New()
	RegisterValidations(v)

	err := v.Struct(sampleRequest{ProductID: "bad id", Quantity: 0, Address: "too long"})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-1")
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid product reference", fields["productId"])
	assert.Equal(t, "This field is required", fields["quantity"])
	assert.Equal(t, "Must be at most 5 characters", fields["address"])
}

func TestHandleBindError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req sampleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"productId":`, dto.ErrCodeInvalidJSON},
		{"failed validation", `{"productId":"p 1","quantity":1}`, dto.ErrCodeValidation},
		{"missing field", `{"quantity":1}`, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}

	t.Run("valid body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"productId":"p1","quantity":2}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
