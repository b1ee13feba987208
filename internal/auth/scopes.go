package auth

// serviceScopes maps a service name to the scopes its accounts may hold and
// the scopes granted when a registration supplies none. Like the role table,
// it is fixed at compile time.
type scopeSet struct {
	Allowed []string
	Default []string
}

var serviceScopes = map[string]scopeSet{
	"restaurant": {
		Allowed: []string{PermReadMenu, PermWriteMenu, PermReadOrders, PermWriteOrders},
		Default: []string{PermReadMenu, PermReadOrders},
	},
	"delivery": {
		Allowed: []string{PermReadOrders, PermReadDeliveries, PermWriteDeliveries},
		Default: []string{PermReadOrders, PermReadDeliveries},
	},
	"payment": {
		Allowed: []string{PermReadOrders, "read:payments", "write:payments"},
		Default: []string{"read:payments"},
	},
	"notification": {
		Allowed: []string{PermReadUsers, "send:notifications"},
		Default: []string{"send:notifications"},
	},
}

// KnownService reports whether the platform has a scope table for the
// given service name.
func KnownService(serviceName string) bool {
	_, ok := serviceScopes[serviceName]
	return ok
}

// DefaultScopesForService returns the default scope set for a service, or an
// empty set when the service is unknown.
func DefaultScopesForService(serviceName string) []string {
	set, ok := serviceScopes[serviceName]
	if !ok {
		return []string{}
	}
	out := make([]string, len(set.Default))
	copy(out, set.Default)
	return out
}

// ValidateServiceScopes checks every requested scope against the service's
// allowed set. It returns false for an unknown service or any scope outside
// the allowed set.
func ValidateServiceScopes(serviceName string, scopes []string) bool {
	set, ok := serviceScopes[serviceName]
	if !ok {
		return false
	}
	allowed := make(map[string]struct{}, len(set.Allowed))
	for _, s := range set.Allowed {
		allowed[s] = struct{}{}
	}
	for _, s := range scopes {
		if _, ok := allowed[s]; !ok {
			return false
		}
	}
	return true
}
