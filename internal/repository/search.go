package repository

import (
	"fmt"
	"strings"
)

// SearchFilter narrows a task search; zero-valued fields are ignored
// and the remaining predicates are ANDed.
type SearchFilter struct {
	Text     string
	ID       int
	Creator  string
	Assignee string
}

// searchPredicate builds the WHERE clause and positional args for a
// filter, against the aliases t (tasks), c (creator) and a (assignee).
// An empty filter yields an empty clause.
func searchPredicate(f SearchFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Text != "" {
		p := arg("%" + f.Text + "%")
		conds = append(conds, fmt.Sprintf("(t.title ILIKE %s OR t.description ILIKE %s)", p, p))
	}
	if f.ID != 0 {
		conds = append(conds, "t.id = "+arg(f.ID))
	}
	if f.Creator != "" {
		conds = append(conds, "c.username ILIKE "+arg("%"+f.Creator+"%"))
	}
	if f.Assignee != "" {
		conds = append(conds, "a.username ILIKE "+arg("%"+f.Assignee+"%"))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
