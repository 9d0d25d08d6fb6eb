package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFavouriteHandler_List(t *testing.T) {
	svc := new(MockFavouriteService)
	userID := uuid.New()
	svc.On("ListFavourites", mock.Anything, userID).Return([]*catalog.Product{
		{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("8.50")},
	}, nil)

	w := serve(http.MethodGet, "/favourite", "/favourite", NewFavouriteHandler(svc).List, "", userID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var products []dto.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
	assert.True(t, decimal.RequireFromString("8.50").Equal(products[0].Price))
}

func TestFavouriteHandler_Add(t *testing.T) {
	svc := new(MockFavouriteService)
	userID := uuid.New()
	user := newHandlerTestUser(t)
	user.AddFavourite("p1")
	svc.On("AddFavourite", mock.Anything, userID, "p1").Return(user, nil)

	w := serve(http.MethodPost, "/favourite", "/favourite", NewFavouriteHandler(svc).Add, `{"productId":"p1"}`, userID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Product added to favourites successfully", resp.Message)
	assert.Equal(t, []string{"p1"}, resp.User.Favourites)
}

func TestFavouriteHandler_Add_UnknownProduct(t *testing.T) {
	svc := new(MockFavouriteService)
	svc.On("AddFavourite", mock.Anything, mock.Anything, "nope").Return(nil, shared.NewNotFoundError("Product"))

	w := serve(http.MethodPost, "/favourite", "/favourite", NewFavouriteHandler(svc).Add, `{"productId":"nope"}`, uuid.New(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavouriteHandler_Remove(t *testing.T) {
	t.Run("by body", func(t *testing.T) {
		svc := new(MockFavouriteService)
		userID := uuid.New()
		svc.On("RemoveFavourite", mock.Anything, userID, "p1").Return(newHandlerTestUser(t), nil)

		w := serve(http.MethodPatch, "/favourite", "/favourite", NewFavouriteHandler(svc).Remove, `{"productId":"p1"}`, userID, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.MessageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Product removed from favourites successfully", resp.Message)
		assert.Empty(t, resp.User.Favourites)
		svc.AssertExpectations(t)
	})

	t.Run("by path", func(t *testing.T) {
		svc := new(MockFavouriteService)
		userID := uuid.New()
		svc.On("RemoveFavourite", mock.Anything, userID, "p2").Return(newHandlerTestUser(t), nil)

		w := serve(http.MethodDelete, "/favourite/p2", "/favourite/:productId", NewFavouriteHandler(svc).RemoveByPath, "", userID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("path is validated by the service", func(t *testing.T) {
		svc := new(MockFavouriteService)
		svc.On("RemoveFavourite", mock.Anything, mock.Anything, "bad$id").
			Return(nil, shared.NewValidationError("Product ID can only contain letters, numbers, underscores, and hyphens"))

		w := serve(http.MethodDelete, "/favourite/bad$id", "/favourite/:productId", NewFavouriteHandler(svc).RemoveByPath, "", uuid.New(), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Error.Code)
	})
}
