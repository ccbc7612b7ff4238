package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// DayParam reads a required YYYY-MM-DD query parameter.
func DayParam(r *http.Request, name string) (calendar.Day, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return calendar.Day{}, apperrors.InvalidInput("missing " + name + " parameter")
	}
	d, err := calendar.ParseDay(s)
	if err != nil {
		return calendar.Day{}, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return d, nil
}

// OptionalDayParam returns the zero Day when the parameter is absent.
func OptionalDayParam(r *http.Request, name string) (calendar.Day, error) {
	if r.URL.Query().Get(name) == "" {
		return calendar.Day{}, nil
	}
	return DayParam(r, name)
}

// OptionalTimeParam returns nil when the parameter is absent.
func OptionalTimeParam(r *http.Request, name string) (*calendar.TimeOfDay, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	t, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return &t, nil
}

func IntParam(r *http.Request, name string, fallback int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

func BoolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// DecodeJSON decodes the request body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil || r.ContentLength == 0 {
		if allowEmpty {
			return nil
		}
		return apperrors.InvalidInput("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid JSON body")
	}
	return nil
}
