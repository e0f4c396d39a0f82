package catalog

// SiteSettings is the storefront branding and behavior the admin panel
// edits. Served to the frontend verbatim.
type SiteSettings struct {
	SiteName        string            `json:"site_name"`
	Tagline         string            `json:"tagline,omitempty"`
	LogoURL         string            `json:"logo_url,omitempty"`
	PrimaryColor    string            `json:"primary_color,omitempty"`
	ContactEmail    string            `json:"contact_email,omitempty"`
	SocialLinks     map[string]string `json:"social_links,omitempty"`
	DefaultLanguage string            `json:"default_language,omitempty"`
	MaintenanceMode bool              `json:"maintenance_mode"`
}

// DefaultSiteSettings returns the settings served before the admin has
// saved any.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:        "Global Deals",
		Tagline:         "Compare prices across platforms",
		PrimaryColor:    "#e11d48",
		DefaultLanguage: "en",
	}
}

// AffiliateSettings holds the per-platform affiliate configuration used
// when building redirect URLs.
type AffiliateSettings struct {
	// Tags maps platform slug to the affiliate tag appended to
	// outbound URLs. Empty tag means redirect untouched.
	Tags map[string]string `json:"tags,omitempty"`
	// TrackingParam names the query parameter carrying the tag.
	TrackingParam string `json:"tracking_param,omitempty"`
}
