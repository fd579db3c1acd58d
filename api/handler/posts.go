package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/gleaner/api/middleware"
	"github.com/use-agent/gleaner/cleaner"
	"github.com/use-agent/gleaner/models"
	"github.com/use-agent/gleaner/store"
)

// ListPosts returns a handler for GET /api/v1/posts.
//
// Supports site_id filtering and the post_id watermark for incremental
// polling. Non-admin callers only see their own posts.
func ListPosts(posts *store.PostStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params models.ListParams
		if err := c.ShouldBindQuery(&params); err != nil {
			badRequest(c, err.Error())
			return
		}

		siteID, err := optionalIDQuery(c, "site_id")
		if err != nil {
			badRequest(c, "invalid site_id")
			return
		}

		filter := store.PostFilter{SiteID: siteID, PostID: params.PostID}
		if user := middleware.CurrentUser(c); user != nil && !user.IsAdmin {
			filter.UserID = user.ID
		}

		rows, total, err := posts.List(c.Request.Context(), filter, params.Page, params.PerPage)
		if err != nil {
			internal(c, "failed to list posts")
			return
		}
		if rows == nil {
			rows = []models.Post{}
		}

		c.JSON(http.StatusOK, models.ListResponse[models.Post]{
			Success: true,
			Items:   rows,
			Page:    params.Page,
			PerPage: params.PerPage,
			Total:   total,
		})
	}
}

// ShowPost returns a handler for GET /api/v1/posts/:id.
//
// The optional format query parameter renders the stored body as html
// (default), markdown or text.
func ShowPost(posts *store.PostStore, cl *cleaner.Cleaner) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, ok := loadOwnedPost(c, posts)
		if !ok {
			return
		}

		format := c.DefaultQuery("format", cleaner.FormatHTML)
		content, err := cl.Render(post.Body, post.URL, format)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		c.JSON(http.StatusOK, models.PostContentResponse{
			Success: true,
			Item:    *post,
			Format:  format,
			Content: content,
		})
	}
}

// ShowPostByURL returns a handler for GET /api/v1/post-by-url?url=...
func ShowPostByURL(posts *store.PostStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		url := c.Query("url")
		if url == "" {
			badRequest(c, "url query parameter is required")
			return
		}

		post, err := posts.ByURL(c.Request.Context(), url)
		if errors.Is(err, store.ErrNotFound) {
			notFound(c, "post not found")
			return
		}
		if err != nil {
			internal(c, "failed to load post")
			return
		}
		if user := middleware.CurrentUser(c); user != nil && !user.IsAdmin && post.UserID != user.ID {
			forbidden(c)
			return
		}

		c.JSON(http.StatusOK, models.ItemResponse[*models.Post]{Success: true, Item: post})
	}
}

// DeletePost returns a handler for DELETE /api/v1/posts/:id.
func DeletePost(posts *store.PostStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, ok := loadOwnedPost(c, posts)
		if !ok {
			return
		}

		if err := posts.Delete(c.Request.Context(), post.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(c, "post not found")
				return
			}
			internal(c, "failed to delete post")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func loadOwnedPost(c *gin.Context, posts *store.PostStore) (*models.Post, bool) {
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "invalid post id")
		return nil, false
	}

	post, err := posts.ByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(c, "post not found")
		return nil, false
	}
	if err != nil {
		internal(c, "failed to load post")
		return nil, false
	}

	if user := middleware.CurrentUser(c); user != nil && !user.IsAdmin && post.UserID != user.ID {
		forbidden(c)
		return nil, false
	}
	return post, true
}

func optionalIDQuery(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
