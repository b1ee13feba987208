// Package auth holds the security core of the platform: the static
// role-to-permission registry, the per-service scope tables and the JWT
// codec for user and service tokens. Everything in this package is pure;
// no function here touches the database or the network.
package auth

import "sort"

// Roles form a closed set. Users carry exactly one of these values in the
// user_type column and in the userType token claim.
const (
	RoleAdmin             = "admin"
	RoleCustomer          = "customer"
	RoleRestaurantAdmin   = "restaurant-admin"
	RoleDeliveryPersonnel = "delivery-personnel"
)

// Permission strings are opaque identifiers checked by RequirePermission
// middleware and carried inside access tokens.
const (
	PermReadUsers         = "read:users"
	PermWriteUsers        = "write:users"
	PermReadMenu          = "read:menu"
	PermWriteMenu         = "write:menu"
	PermReadOrders        = "read:orders"
	PermWriteOrders       = "write:orders"
	PermReadBlogs         = "read:blogs"
	PermWriteBlogs        = "write:blogs"
	PermReadDeliveries    = "read:deliveries"
	PermWriteDeliveries   = "write:deliveries"
	PermManagePermissions = "manage:permissions"
	PermManageServices    = "manage:services"
)

// rolePermissions is the static role table. It is initialized once and never
// mutated; lookups always copy so callers cannot modify the registry.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermReadUsers, PermWriteUsers,
		PermReadMenu, PermWriteMenu,
		PermReadOrders, PermWriteOrders,
		PermReadBlogs, PermWriteBlogs,
		PermReadDeliveries, PermWriteDeliveries,
		PermManagePermissions, PermManageServices,
	},
	RoleCustomer: {
		PermReadMenu, PermReadOrders, PermWriteOrders, PermReadBlogs,
	},
	RoleRestaurantAdmin: {
		PermReadMenu, PermWriteMenu, PermReadOrders, PermReadBlogs, PermWriteBlogs,
	},
	RoleDeliveryPersonnel: {
		PermReadOrders, PermReadDeliveries, PermWriteDeliveries,
	},
}

// PermissionsForRole returns the permissions granted to a role. The result
// is a fresh slice on every call; an unknown role yields an empty set, never
// an error.
func PermissionsForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// AllPermissions returns every permission known to the platform, sorted.
// Caller-supplied permission lists are validated against this set.
func AllPermissions() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, perms := range rolePermissions {
		for _, p := range perms {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ValidPermission reports whether p belongs to the enumerated permission set.
func ValidPermission(p string) bool {
	for _, perms := range rolePermissions {
		for _, known := range perms {
			if known == p {
				return true
			}
		}
	}
	return false
}

// MergePermissions unions the role's permissions with a user's custom
// permissions, removing duplicates. The result is sorted so the merged set
// is deterministic regardless of input order.
func MergePermissions(role string, custom []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range rolePermissions[role] {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, p := range custom {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
