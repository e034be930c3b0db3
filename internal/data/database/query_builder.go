// Package database builds parameterized list queries with sanitized identifiers.
package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is the comparison operator of a WHERE condition.
type ConditionType string

const (
	Equal       ConditionType = "="
	NotEqual    ConditionType = "!="
	GreaterThan ConditionType = ">"
	LessThan    ConditionType = "<"
	ILike       ConditionType = "ILIKE"
	// Any matches when the column equals any element of a slice parameter.
	Any ConditionType = "ANY"

	unset = -1
)

// Condition is a single "<field> <op> $n" predicate. Conditions are joined with AND.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a Condition.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// Contains builds a case-insensitive substring match, escaping LIKE wildcards in s.
func Contains(field, s string) Condition {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return WhereCond(field, ILike, "%"+r.Replace(s)+"%")
}

type orderTerm struct {
	column string
	dir    string
}

// ListQueryOptions describes a SELECT over a single table or view.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	Limit      int
	Offset     int

	order []orderTerm
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions creates options for table with the given modifiers applied.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy appends an ordering term. Call it more than once for tie-breakers.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.order = append(o.order, orderTerm{column: column, dir: direction})
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// sanitize quotes an identifier, splitting qualified names like "table.column".
func sanitize(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery constructs a SQL query string and arguments from options, sanitizing identifiers.
//
//	query, args := BuildListQuery(NewListQueryOptions("post_feed",
//		WithColumns("id", "title"),
//		WithCondition(WhereCond("author_id", Equal, id)),
//		WithOrderBy("created_at", "DESC"),
//		WithLimit(20),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var q strings.Builder
	switch {
	case options.CountOnly:
		q.WriteString("SELECT COUNT(*)")
	case len(options.Columns) == 0:
		q.WriteString("SELECT *")
	default:
		cols := make([]string, len(options.Columns))
		for i, c := range options.Columns {
			cols[i] = sanitize(c)
		}
		q.WriteString("SELECT ")
		q.WriteString(strings.Join(cols, ", "))
	}
	q.WriteString(" FROM ")
	q.WriteString(sanitize(options.Table))

	args := make([]any, 0, len(options.Conditions)+2)
	if len(options.Conditions) > 0 {
		preds := make([]string, 0, len(options.Conditions))
		for _, c := range options.Conditions {
			args = append(args, c.Value)
			preds = append(preds, predicate(c, len(args)))
		}
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(preds, " AND "))
	}

	if options.CountOnly {
		return q.String(), args
	}

	if len(options.order) > 0 {
		terms := make([]string, 0, len(options.order))
		for _, o := range options.order {
			term := sanitize(o.column)
			if d := strings.ToUpper(o.dir); d == "ASC" || d == "DESC" {
				term += " " + d
			}
			terms = append(terms, term)
		}
		q.WriteString(" ORDER BY ")
		q.WriteString(strings.Join(terms, ", "))
	}
	if options.Limit != unset {
		args = append(args, options.Limit)
		fmt.Fprintf(&q, " LIMIT $%d", len(args))
	}
	if options.Offset != unset {
		args = append(args, options.Offset)
		fmt.Fprintf(&q, " OFFSET $%d", len(args))
	}
	return q.String(), args
}

func predicate(c Condition, n int) string {
	field := sanitize(c.Field)
	switch c.Type {
	case Any:
		return fmt.Sprintf("%s = ANY($%d)", field, n)
	case ILike:
		return fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, field, n)
	case "":
		return fmt.Sprintf("%s = $%d", field, n)
	default:
		return fmt.Sprintf("%s %s $%d", field, c.Type, n)
	}
}
