// Package handlers exposes the dashboard services over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	apperr.WriteJSON(w, err)
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required", nil)
		}
		return apperr.Validation("Invalid JSON", apperr.Details{"error": err.Error()})
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperr.Validation("Invalid integer parameter", apperr.Details{name: raw})
	}
	return n, true, nil
}

// listParams reads order_by, ascending, limit and offset.
func listParams(r *http.Request) (*db.Order, *db.Page, error) {
	var order *db.Order
	if field := r.URL.Query().Get("order_by"); field != "" {
		if !isFieldPath(field) {
			return nil, nil, apperr.Validation("Invalid order_by column", apperr.Details{"order_by": field})
		}
		order = &db.Order{Field: field}
		if raw := r.URL.Query().Get("ascending"); raw != "" {
			asc, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, nil, apperr.Validation("Invalid boolean parameter", apperr.Details{"ascending": raw})
			}
			order.Ascending = asc
		}
	}

	limit, hasLimit, err := queryInt(r, "limit")
	if err != nil {
		return nil, nil, err
	}
	offset, hasOffset, err := queryInt(r, "offset")
	if err != nil {
		return nil, nil, err
	}
	if !hasLimit && !hasOffset {
		return order, nil, nil
	}
	if limit < 0 || offset < 0 {
		return nil, nil, apperr.Validation("Pagination must not be negative", apperr.Details{"limit": limit, "offset": offset})
	}
	return order, &db.Page{Limit: limit, Offset: offset}, nil
}

// isFieldPath reports whether name is a dotted column path without operators.
func isFieldPath(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if part == "" || strings.HasPrefix(part, "$") {
			return false
		}
	}
	return true
}
