package models

// SiteForm is the payload for POST /api/v1/sites and PUT /api/v1/sites/:id.
type SiteForm struct {
	Name string `json:"name" binding:"required"`

	// URL is the site origin used as the base for relative hrefs. Required.
	URL string `json:"url" binding:"required,url"`

	// URLList is the list page crawled for new post links. Required.
	URLList string `json:"url_list" binding:"required,url"`

	// Selectors. All optional; each must parse as a CSS selector when set.
	PathLink    string `json:"path_link,omitempty"`
	PathTitle   string `json:"path_title,omitempty"`
	PathContent string `json:"path_content,omitempty"`
	PathImage   string `json:"path_image,omitempty"`
	PathVideo   string `json:"path_video,omitempty"`

	// PathRemove is a comma-separated selector list removed before extraction.
	PathRemove string `json:"path_remove,omitempty"`

	Screenshot bool `json:"screenshot,omitempty"`

	// Status enables the site for discovery and fetch. Default: true.
	Status *bool `json:"status,omitempty"`
}

// EnabledStatus resolves the optional status field, defaulting to enabled.
func (f *SiteForm) EnabledStatus() bool {
	if f.Status == nil {
		return true
	}
	return *f.Status
}

// ListParams are the shared pagination query parameters.
//
// PostID is a watermark: only rows with id > PostID are returned, which lets
// clients poll for new posts without re-reading pages they have seen.
type ListParams struct {
	Page    int   `form:"page,default=1" binding:"omitempty,min=1"`
	PerPage int   `form:"per_page,default=20" binding:"omitempty,min=1,max=100"`
	PostID  int64 `form:"post_id" binding:"omitempty,min=0"`
}
