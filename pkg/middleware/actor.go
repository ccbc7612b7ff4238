package middleware

import (
	"net/http"

	"barbersched/pkg/actor"
	"barbersched/pkg/logger"
)

// Actor reads the caller identity forwarded by the gateway. Requests without
// an identity pass through anonymously; handlers decide whether that is
// acceptable. A malformed role is rejected outright.
func Actor(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(actor.HeaderID)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			role, ok := actor.ParseRole(r.Header.Get(actor.HeaderRole))
			if !ok {
				log.Warn("Invalid actor role",
					"request_id", RequestIDFrom(r.Context()),
					"actor_id", id,
					"role", r.Header.Get(actor.HeaderRole),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid actor role","code":"UNAUTHORIZED"}`))
				return
			}

			ctx := actor.WithActor(r.Context(), actor.Actor{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
