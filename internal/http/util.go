package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
)

// RoleHeader carries the side the caller acts for when the body does not.
const RoleHeader = "X-Actor-Role"

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// queryList collects a query parameter given either repeated or comma separated.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// actorFor builds the caller's actor. The explicit role wins over the role query
// parameter, which wins over the role header.
func actorFor(r *http.Request, explicitRole string) workflow.Actor {
	role := strings.TrimSpace(explicitRole)
	if role == "" {
		role = strings.TrimSpace(r.URL.Query().Get("role"))
	}
	if role == "" {
		role = strings.TrimSpace(r.Header.Get(RoleHeader))
	}
	parsed, _ := model.ParseRole(role)
	return workflow.Actor{ID: SubjectFromContext(r.Context()), Role: parsed}
}
