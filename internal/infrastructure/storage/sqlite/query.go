package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"clipkeeper/internal/domain/clip"
)

// DefaultLimit caps search results when the caller does not say otherwise.
const DefaultLimit = 10

func defaultFields() []string {
	return []string{"ts", "item"}
}

// Query describes one substring search. Matching is a case-sensitive
// containment test against item; results are ordered by match position,
// ties broken by timestamp descending.
type Query struct {
	Term   string
	Limit  int
	Fields []string
}

// searchSQL builds the statement around a validated, quoted field list. The
// term is always bound as a parameter, twice: once for the containment test
// and once for the position ordering.
func searchSQL(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteIdent(f)
	}
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE instr(item, ?) > 0 ORDER BY instr(item, ?), ts DESC LIMIT ?",
		strings.Join(quoted, ", "), quoteIdent(clip.Table),
	)
}

// Search runs a substring query and returns a lazy result sequence. The
// caller owns the sequence and must Close it. Field names are validated
// against the store's discovered columns before they reach the statement;
// an unknown name is a query error, not a silent empty projection.
func (s *Store) Search(ctx context.Context, q Query) (*Results, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be a positive integer, got %d", clip.ErrInvalidArgument, q.Limit)
	}
	if len(q.Fields) == 0 {
		q.Fields = defaultFields()
	}

	if err := s.checkFields(ctx, q.Fields); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, searchSQL(q.Fields), q.Term, q.Term, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.path, mapDriverErr(err))
	}

	return &Results{rows: rows, fields: q.Fields}, nil
}

func (s *Store) checkFields(ctx context.Context, fields []string) error {
	cols, err := s.Columns(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c.Name] = true
	}
	for _, f := range fields {
		if !known[f] {
			return fmt.Errorf("unknown column %q in %s table of %s", f, clip.Table, s.path)
		}
	}

	return nil
}

// Results is a lazy, finite, non-restartable sequence of projected records.
type Results struct {
	rows   *sql.Rows
	fields []string
}

// Fields returns the projection, in order.
func (r *Results) Fields() []string {
	return r.fields
}

// Next advances to the next record.
func (r *Results) Next() bool {
	return r.rows.Next()
}

// Scan renders the current record's fields as text, in projection order.
// NULL renders as the empty string.
func (r *Results) Scan() ([]string, error) {
	raw := make([]any, len(r.fields))
	ptrs := make([]any, len(r.fields))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning search result: %w", err)
	}

	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = formatValue(v)
	}
	return out, nil
}

// Err reports any error that ended iteration early.
func (r *Results) Err() error {
	return r.rows.Err()
}

// Close releases the sequence.
func (r *Results) Close() error {
	return r.rows.Close()
}

// formatValue renders a raw driver value as display text. Whole floats print
// without an exponent: the source declares its timestamp column REAL, and
// "7.12424025e+08" is useless in a terminal.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// SearchClips runs a substring query with the fixed ts/item/app projection
// and returns typed records, newest-first within equal match positions, for
// structured rendering. The timestamp column accepts either integer or real
// storage, which both occur in the wild.
func (s *Store) SearchClips(ctx context.Context, term string, limit int) ([]clip.Clip, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be a positive integer, got %d", clip.ErrInvalidArgument, limit)
	}

	rows, err := s.db.QueryContext(ctx, searchSQL([]string{"ts", "item", "app"}), term, term, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.path, mapDriverErr(err))
	}
	defer rows.Close()

	var clips []clip.Clip
	for rows.Next() {
		var (
			ts   sql.NullFloat64
			item sql.NullString
			app  sql.NullString
		)
		if err := rows.Scan(&ts, &item, &app); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		clips = append(clips, clip.Clip{
			Timestamp: int64(ts.Float64),
			Content:   item.String,
			SourceApp: app.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.path, err)
	}

	return clips, nil
}
