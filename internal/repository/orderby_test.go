package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderByForFilter(t *testing.T) {
	cases := map[string]string{
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
	for filterType, want := range cases {
		got, err := orderByForFilter(filterType)
		require.NoError(t, err, filterType)
		assert.Equal(t, want, got, filterType)
	}
}

func TestOrderByForFilterUnknown(t *testing.T) {
	for _, filterType := range []string{"", "priority_asc", "number", "id; DROP TABLE tasks"} {
		_, err := orderByForFilter(filterType)
		assert.ErrorIs(t, err, ErrUnknownFilter, filterType)
	}
}
