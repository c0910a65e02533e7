package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the route patterns listed under
// app.maintenance.endpoints. A "*" entry blocks every route.
func middlewareMaintenance(cfg config.Config) Middleware {
	var blocked map[string]struct{}
	if cfg != nil {
		blocked = lo.SliceToMap(cfg.GetArray("app.maintenance.endpoints"), func(e string) (string, struct{}) {
			return strings.TrimSpace(e), struct{}{}
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, all := blocked["*"]
			if _, one := blocked[matchedRoutePath(r)]; all || one {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
