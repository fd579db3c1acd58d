package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/gleaner/models"
	"github.com/use-agent/gleaner/store"
)

// UserForm is the payload for POST /api/v1/admin/users.
type UserForm struct {
	Name    string `json:"name" binding:"required"`
	IsAdmin bool   `json:"is_admin"`
}

// CreatedUser is the one-time response carrying the raw API key. The key is
// never retrievable again; only its hash is stored.
type CreatedUser struct {
	User   models.User `json:"user"`
	APIKey string      `json:"api_key"`
}

// CreateUser returns a handler for POST /api/v1/admin/users. It creates the
// user and issues their first API key in one call.
func CreateUser(users *store.UserStore, hmacKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form UserForm
		if err := c.ShouldBindJSON(&form); err != nil {
			badRequest(c, err.Error())
			return
		}

		user, err := users.CreateUser(c.Request.Context(), form.Name, form.IsAdmin)
		if err != nil {
			internal(c, "failed to create user")
			return
		}

		rawKey := store.GenerateKey()
		if _, err := users.CreateAPIKey(c.Request.Context(), user.ID, store.HashKey(hmacKey, rawKey)); err != nil {
			internal(c, "failed to issue api key")
			return
		}

		c.JSON(http.StatusCreated, models.ItemResponse[CreatedUser]{
			Success: true,
			Item:    CreatedUser{User: *user, APIKey: rawKey},
		})
	}
}

// CreateKey returns a handler for POST /api/v1/admin/users/:id/keys, issuing
// an additional API key for an existing user.
func CreateKey(users *store.UserStore, hmacKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c)
		if err != nil {
			badRequest(c, "invalid user id")
			return
		}

		rawKey := store.GenerateKey()
		key, err := users.CreateAPIKey(c.Request.Context(), id, store.HashKey(hmacKey, rawKey))
		if err != nil {
			internal(c, "failed to issue api key")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"key_id":  key.ID,
			"api_key": rawKey,
		})
	}
}
