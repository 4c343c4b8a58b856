package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shelfwise/library-backend/api/responses"
	"github.com/shelfwise/library-backend/api/validators"
	"github.com/shelfwise/library-backend/internal/summary"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// Summary serves the admin dashboard for a preset range or a from/to window.
func Summary(svc summary.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("summary"))
			return
		}
		q := summary.Query{Range: validators.QueryString(r, "range", 8)}
		from, err := parseDateParam(r, "from", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseDateParam(r, "to", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q.From, q.To = from, to

		result, err := svc.Summary(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// parseDateParam accepts RFC 3339 timestamps or plain dates. A plain "to"
// date covers the whole day.
func parseDateParam(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be a date (YYYY-MM-DD)").WithDetails(map[string]any{"field": key})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
