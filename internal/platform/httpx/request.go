package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/shared"
)

// CallerFarm resolves the authenticated principal and its effective farm.
// Admins may target another farm with the farmId query parameter; everyone
// else stays on their own farm.
func CallerFarm(r *http.Request) (shared.Principal, int64, error) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return shared.Principal{}, 0, shared.E(shared.KindUnauthorized, "authentication required")
	}
	farmID := p.FarmID
	if raw := r.URL.Query().Get("farmId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return shared.Principal{}, 0, shared.E(shared.KindValidation, "farmId must be an integer")
		}
		farmID = parsed
	}
	resolved, err := p.ResolveFarm(farmID)
	if err != nil {
		return shared.Principal{}, 0, err
	}
	return p, resolved, nil
}

// WriterFarm is CallerFarm plus a mutation check: viewers are rejected.
func WriterFarm(r *http.Request) (shared.Principal, int64, error) {
	p, farmID, err := CallerFarm(r)
	if err != nil {
		return shared.Principal{}, 0, err
	}
	if !p.CanWrite() {
		return shared.Principal{}, 0, shared.E(shared.KindForbidden, "role %s may not modify farm data", p.Role)
	}
	return p, farmID, nil
}

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "%s must be a positive integer", name)
	}
	return id, nil
}
