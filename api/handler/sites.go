package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/gleaner/api/middleware"
	"github.com/use-agent/gleaner/cleaner"
	"github.com/use-agent/gleaner/models"
	"github.com/use-agent/gleaner/store"
)

// ListSites returns a handler for GET /api/v1/sites.
//
// Non-admin callers only see sites owned by their user.
func ListSites(sites *store.SiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params models.ListParams
		if err := c.ShouldBindQuery(&params); err != nil {
			badRequest(c, err.Error())
			return
		}

		filter := store.SiteFilter{}
		if user := middleware.CurrentUser(c); user != nil && !user.IsAdmin {
			filter.UserID = user.ID
		}

		rows, total, err := sites.List(c.Request.Context(), filter, params.Page, params.PerPage)
		if err != nil {
			internal(c, "failed to list sites")
			return
		}
		if rows == nil {
			rows = []models.Site{}
		}

		c.JSON(http.StatusOK, models.ListResponse[models.Site]{
			Success: true,
			Items:   rows,
			Page:    params.Page,
			PerPage: params.PerPage,
			Total:   total,
		})
	}
}

// CreateSite returns a handler for POST /api/v1/sites. The new site is owned
// by the calling user and API key.
func CreateSite(sites *store.SiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.SiteForm
		if err := c.ShouldBindJSON(&form); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := validateSiteForm(&form); err != nil {
			badRequest(c, err.Error())
			return
		}

		user := middleware.CurrentUser(c)
		key := middleware.CurrentAPIKey(c)
		site, err := sites.Create(c.Request.Context(), form, user.ID, key.ID)
		if err != nil {
			internal(c, "failed to create site")
			return
		}

		c.JSON(http.StatusCreated, models.ItemResponse[*models.Site]{Success: true, Item: site})
	}
}

// ShowSite returns a handler for GET /api/v1/sites/:id.
func ShowSite(sites *store.SiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		site, ok := loadOwnedSite(c, sites)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, models.ItemResponse[*models.Site]{Success: true, Item: site})
	}
}

// UpdateSite returns a handler for PUT /api/v1/sites/:id.
func UpdateSite(sites *store.SiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		site, ok := loadOwnedSite(c, sites)
		if !ok {
			return
		}

		var form models.SiteForm
		if err := c.ShouldBindJSON(&form); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := validateSiteForm(&form); err != nil {
			badRequest(c, err.Error())
			return
		}

		updated, err := sites.Update(c.Request.Context(), site.ID, form)
		if errors.Is(err, store.ErrNotFound) {
			notFound(c, "site not found")
			return
		}
		if err != nil {
			internal(c, "failed to update site")
			return
		}

		c.JSON(http.StatusOK, models.ItemResponse[*models.Site]{Success: true, Item: updated})
	}
}

// DeleteSite returns a handler for DELETE /api/v1/sites/:id. Posts cascade
// with the site.
func DeleteSite(sites *store.SiteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		site, ok := loadOwnedSite(c, sites)
		if !ok {
			return
		}

		if err := sites.Delete(c.Request.Context(), site.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(c, "site not found")
				return
			}
			internal(c, "failed to delete site")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// loadOwnedSite resolves :id and enforces tenancy: non-admin callers may only
// touch their own sites. Writes the error response itself when returning
// ok = false.
func loadOwnedSite(c *gin.Context, sites *store.SiteStore) (*models.Site, bool) {
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "invalid site id")
		return nil, false
	}

	site, err := sites.ByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(c, "site not found")
		return nil, false
	}
	if err != nil {
		internal(c, "failed to load site")
		return nil, false
	}

	if user := middleware.CurrentUser(c); user != nil && !user.IsAdmin && site.UserID != user.ID {
		forbidden(c)
		return nil, false
	}
	return site, true
}

// validateSiteForm parses every selector field so broken selectors are
// rejected at write time rather than surfacing as crawl failures.
func validateSiteForm(form *models.SiteForm) error {
	for _, sel := range []string{
		form.PathLink, form.PathTitle, form.PathContent,
		form.PathImage, form.PathVideo,
	} {
		if err := cleaner.ValidateSelector(sel); err != nil {
			return err
		}
	}
	return cleaner.ValidateSelectorList(form.PathRemove)
}
