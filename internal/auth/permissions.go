package auth

import "strings"

type StaffPermission string

const (
	PermOrders    StaffPermission = "orders"
	PermDiscounts StaffPermission = "discounts"
	PermVoids     StaffPermission = "voids"
	PermPayments  StaffPermission = "payments"
	PermRefunds   StaffPermission = "refunds"
	PermParking   StaffPermission = "parking"
)

var apiPermissionMap = map[string]StaffPermission{
	"/api/pos/orders":                PermOrders,
	"/api/pos/orders/items":          PermOrders,
	"/api/pos/orders/fire":           PermOrders,
	"/api/pos/orders/discount":       PermDiscounts,
	"/api/pos/orders/items/discount": PermDiscounts,
	"/api/pos/orders/tip":            PermPayments,
	"/api/pos/orders/service-charge": PermPayments,
	"/api/pos/orders/void":           PermVoids,
	"/api/pos/orders/items/void":     PermVoids,
	"/api/pos/orders/park":           PermParking,
	"/api/pos/orders/resume":         PermParking,
	"/api/pos/orders/pay":            PermPayments,
	"/api/pos/orders/refund":         PermRefunds,
}

// GetPermissionForAPI maps a POS route to the staff permission it needs.
// Owners and managers bypass the check entirely.
func GetPermissionForAPI(path string, method string) *StaffPermission {
	method = strings.ToUpper(strings.TrimSpace(method))
	if perm, ok := apiPermissionMap[method+" "+path]; ok {
		return &perm
	}
	if perm, ok := apiPermissionMap[path]; ok {
		return &perm
	}
	for prefix, perm := range apiPermissionMap {
		if strings.HasPrefix(path, prefix+"/") {
			p := perm
			return &p
		}
	}
	return nil
}
