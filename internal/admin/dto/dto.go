package dto

import "time"

// Dashboard metrics, one count query each.
const (
	MetricCategories          = "categories"
	MetricSubCategories       = "subCategories"
	MetricSuperSubCategories  = "superSubCategories"
	MetricProducts            = "products"
	MetricActiveProducts      = "activeProducts"
	MetricFeaturedProducts    = "featuredProducts"
	MetricContactEnquiries    = "contactEnquiries"
	MetricNewEnquiries        = "newEnquiries"
	MetricNewsletterActive    = "newsletterSubscribers"
	MetricCatalogueRequests   = "catalogueRequests"
	MetricRecentCatalogueReqs = "catalogueRequestsLast30Days"
)

var Metrics = []string{
	MetricCategories,
	MetricSubCategories,
	MetricSuperSubCategories,
	MetricProducts,
	MetricActiveProducts,
	MetricFeaturedProducts,
	MetricContactEnquiries,
	MetricNewEnquiries,
	MetricNewsletterActive,
	MetricCatalogueRequests,
	MetricRecentCatalogueReqs,
}

type AdminInfo struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	Admin     AdminInfo
}
