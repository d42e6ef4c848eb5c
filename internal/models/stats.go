package models

// AdminStats summarizes the whole storefront.
type AdminStats struct {
	TotalUsers      int64   `json:"totalUsers"`
	TotalProducts   int64   `json:"totalProducts"`
	TotalOrders     int64   `json:"totalOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
	PendingProducts int64   `json:"pendingProducts"`
	ActiveVendors   int64   `json:"activeVendors"`
}

// VendorStats summarizes one vendor's catalog and sales.
type VendorStats struct {
	TotalProducts int64   `json:"totalProducts"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AverageRating float64 `json:"averageRating"`
	TotalOrders   int64   `json:"totalOrders"`
}
