package models

// Profile is what the profile webhook knows about a user: the establishments
// they order for and the latest order placed today, if any.
type Profile struct {
	Establishments []string `json:"establishments"`
	// HasCompany is false when the response carried no company field at all.
	HasCompany         bool   `json:"has_company"`
	Order              string `json:"order"`
	Comment            string `json:"comment"`
	ExistingOrderToday bool   `json:"existing_order_today"`
}
