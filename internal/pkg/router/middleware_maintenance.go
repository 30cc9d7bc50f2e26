package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/watarui/wauth/internal/pkg/config"
)

// maintenanceRules lists blocked routes from app.maintenance.endpoints. An
// entry is "*" (everything but /health), a route pattern such as
// "/api/v1/sites/:site_name" (every method) or "DELETE /api/v1/sites/:site_name".
type maintenanceRules struct {
	all    bool
	routes map[string]struct{}
}

func parseMaintenanceRules(entries []string) maintenanceRules {
	rules := maintenanceRules{routes: map[string]struct{}{}}
	for _, entry := range entries {
		entry = strings.Join(strings.Fields(entry), " ")
		switch {
		case entry == "":
		case entry == "*":
			rules.all = true
		default:
			if method, route, ok := strings.Cut(entry, " "); ok {
				entry = strings.ToUpper(method) + " " + route
			}
			rules.routes[entry] = struct{}{}
		}
	}
	return rules
}

func (m maintenanceRules) empty() bool { return !m.all && len(m.routes) == 0 }

func (m maintenanceRules) blocks(method, route string) bool {
	if route == "/health" {
		return false
	}
	if m.all {
		return true
	}
	_, anyMethod := m.routes[route]
	_, exact := m.routes[method+" "+route]
	return anyMethod || exact
}

func middlewareMaintenance(cfg config.Config) Middleware {
	var (
		rules      maintenanceRules
		retryAfter int
	)
	if cfg != nil {
		rules = parseMaintenanceRules(cfg.GetArray("app.maintenance.endpoints"))
		retryAfter = cfg.GetInt("app.maintenance.retry_after_seconds")
	}

	return func(next http.Handler) http.Handler {
		if rules.empty() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rules.blocks(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
