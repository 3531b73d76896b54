package shared

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ParseUUID extracts a uuid path variable.
func ParseUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

// ParseUUIDString parses a uuid from a raw query value.
func ParseUUIDString(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

// ParseIntQuery returns the query parameter as an int, zero when absent
// or malformed.
func ParseIntQuery(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
