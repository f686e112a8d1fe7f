package repository

import "errors"

// ErrUnknownFilter is returned for listing filters the API does not offer.
var ErrUnknownFilter = errors.New("unknown filter type")

var filterOrderings = map[string]string{
	"number_asc":           "number ASC",
	"number_desc":          "number DESC",
	"status_asc":           "status ASC",
	"status_desc":          "status DESC",
	"type_asc":             "type ASC",
	"type_desc":            "type DESC",
	"created_at_asc":       "created_at ASC",
	"created_at_desc":      "created_at DESC",
	"last_updated_at_asc":  "last_updated_at ASC",
	"last_updated_at_desc": "last_updated_at DESC",
	"assignee_asc":         "assignee_id ASC",
	"assignee_desc":        "assignee_id DESC",
}

// orderByForFilter maps a listing filter type to its ORDER BY clause.
// The map doubles as a whitelist: the result is safe to splice into SQL.
func orderByForFilter(filterType string) (string, error) {
	ordering, ok := filterOrderings[filterType]
	if !ok {
		return "", ErrUnknownFilter
	}
	return ordering, nil
}
