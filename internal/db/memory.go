package db

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store with the same filter, join and constraint
// semantics as MongoStore. It backs tests and local demo runs.
type MemoryStore struct {
	mu     sync.RWMutex
	schema Schema
	tables map[string][]Row
	now    func() time.Time
}

// NewMemoryStore creates an empty store enforcing schema.
func NewMemoryStore(schema Schema) *MemoryStore {
	return &MemoryStore{
		schema: schema,
		tables: make(map[string][]Row),
		now:    time.Now,
	}
}

// Insert stores a copy of record, assigning an id and timestamps when absent.
func (s *MemoryStore) Insert(ctx context.Context, table string, record interface{}) (Row, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	row, err := ToRow(record)
	if err != nil {
		return nil, &BackendError{Code: CodeInvalidQuery, Message: "invalid record", Err: err}
	}
	stampInsert(row, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(table, row[FieldID].(string)) >= 0 {
		return nil, uniqueViolation(table, []string{FieldID})
	}
	if err := s.checkOutgoing(table, row); err != nil {
		return nil, err
	}
	if err := s.checkUnique(table, row, -1); err != nil {
		return nil, err
	}
	s.tables[table] = append(s.tables[table], row)
	return copyRow(row), nil
}

// Update merges patch into the row with the given id.
func (s *MemoryStore) Update(ctx context.Context, table string, id string, patch Row) (Row, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(table, id)
	if idx < 0 {
		return nil, noRows(table, id)
	}
	updated := copyRow(s.tables[table][idx])
	for k, v := range patch {
		if k == FieldID || k == "created_at" {
			continue
		}
		updated[k] = v
	}
	updated["updated_at"] = Timestamp(s.now())

	if err := s.checkOutgoing(table, patch); err != nil {
		return nil, err
	}
	if err := s.checkUnique(table, updated, idx); err != nil {
		return nil, err
	}
	s.tables[table][idx] = updated
	return copyRow(updated), nil
}

// Delete removes the row with the given id, cascading or rejecting per schema.
func (s *MemoryStore) Delete(ctx context.Context, table string, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(table, id)
	if idx < 0 {
		return noRows(table, id)
	}
	for _, fk := range s.schema.incoming(table) {
		if fk.Cascade {
			continue
		}
		for _, r := range s.tables[fk.Table] {
			if v, ok := referenceValue(r, fk.Field); ok && v == id {
				return referencedViolation(fk, id)
			}
		}
	}
	for _, fk := range s.schema.incoming(table) {
		if !fk.Cascade {
			continue
		}
		kept := s.tables[fk.Table][:0]
		for _, r := range s.tables[fk.Table] {
			if v, ok := referenceValue(r, fk.Field); ok && v == id {
				continue
			}
			kept = append(kept, r)
		}
		s.tables[fk.Table] = kept
	}
	rows := s.tables[table]
	s.tables[table] = append(rows[:idx:idx], rows[idx+1:]...)
	return nil
}

// GetByID returns the row with the given id.
func (s *MemoryStore) GetByID(ctx context.Context, table string, id string) (Row, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(table, id)
	if idx < 0 {
		return nil, noRows(table, id)
	}
	return copyRow(s.tables[table][idx]), nil
}

// Query runs a filtered, ordered, paginated read with join expansion.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Row, 0)
	for _, r := range s.tables[q.Table] {
		if matchesAll(r, q.Filters) {
			out = append(out, copyRow(r))
		}
	}
	sortRows(out, q.Order)
	out = paginate(out, q.Page)
	for _, r := range out {
		s.expand(r, q.Joins)
	}
	return out, nil
}

func (s *MemoryStore) expand(row Row, joins []Join) {
	for _, j := range joins {
		local, ok := row[j.LocalField]
		if !ok || local == nil {
			if !j.Single {
				row[j.As] = []Row{}
			}
			continue
		}
		matched := make([]Row, 0)
		for _, r := range s.tables[j.Table] {
			if c, ok := compareValues(r[j.ForeignField], local); !ok || c != 0 {
				continue
			}
			if !matchesAll(r, j.Filters) {
				continue
			}
			matched = append(matched, copyRow(r))
		}
		sortRows(matched, j.Order)
		for _, m := range matched {
			s.expand(m, j.Joins)
		}
		if j.Single {
			if len(matched) > 0 {
				row[j.As] = matched[0]
			}
			continue
		}
		row[j.As] = matched
	}
}

func (s *MemoryStore) indexOf(table, id string) int {
	for i, r := range s.tables[table] {
		if v, _ := r[FieldID].(string); v == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) checkOutgoing(table string, row Row) error {
	for _, fk := range s.schema.outgoing(table) {
		ref, ok := referenceValue(row, fk.Field)
		if !ok {
			continue
		}
		if s.indexOf(fk.References, ref) < 0 {
			return foreignKeyViolation(fk, ref)
		}
	}
	return nil
}

// checkUnique rejects row when another row (other than index skip) holds the same
// values for a unique constraint. Constraints with a missing value are not checked.
func (s *MemoryStore) checkUnique(table string, row Row, skip int) error {
	for _, u := range s.schema.uniquesFor(table) {
		if !hasAll(row, u.Fields) {
			continue
		}
		for i, other := range s.tables[table] {
			if i == skip {
				continue
			}
			same := true
			for _, f := range u.Fields {
				if c, ok := compareValues(other[f], row[f]); !ok || c != 0 {
					same = false
					break
				}
			}
			if same {
				return uniqueViolation(table, u.Fields)
			}
		}
	}
	return nil
}

func hasAll(row Row, fields []string) bool {
	for _, f := range fields {
		if v, ok := row[f]; !ok || v == nil {
			return false
		}
	}
	return true
}

func stampInsert(row Row, now time.Time) {
	if id, ok := row[FieldID].(string); !ok || id == "" {
		row[FieldID] = NewID()
	}
	if isZeroTime(row["created_at"]) {
		row["created_at"] = Timestamp(now)
	}
	row["updated_at"] = Timestamp(now)
}

func isZeroTime(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case time.Time:
		return t.IsZero()
	case primitive.DateTime:
		return t.Time().IsZero()
	default:
		return false
	}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &BackendError{Code: CodeInternal, Message: "request cancelled", Err: err}
	}
	return nil
}

func validateQuery(q Query) error {
	if strings.TrimSpace(q.Table) == "" {
		return &BackendError{Code: CodeInvalidQuery, Message: "query table is required"}
	}
	if q.Page != nil && (q.Page.Limit < 0 || q.Page.Offset < 0) {
		return &BackendError{
			Code:    CodeInvalidQuery,
			Message: "invalid pagination",
			Details: fmt.Sprintf("limit=%d offset=%d", q.Page.Limit, q.Page.Offset),
		}
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq, OpGt, OpGte, OpLt, OpLte:
		case OpLteField:
			if _, ok := f.Value.(string); !ok {
				return &BackendError{Code: CodeInvalidQuery, Message: "column comparison needs a column name", Details: f.Field}
			}
		default:
			return &BackendError{Code: CodeInvalidQuery, Message: "unsupported filter operator", Details: string(f.Op)}
		}
	}
	return nil
}

func matchesAll(row Row, filters []Filter) bool {
	for _, f := range filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func matches(row Row, f Filter) bool {
	actual, ok := row[f.Field]
	if !ok {
		return false
	}
	want := f.Value
	if f.Op == OpLteField {
		other, _ := f.Value.(string)
		if want, ok = row[other]; !ok {
			return false
		}
	}
	c, ok := compareValues(actual, want)
	if !ok {
		return f.Op == OpEq && reflect.DeepEqual(actual, want)
	}
	switch f.Op {
	case OpEq:
		return c == 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte, OpLteField:
		return c <= 0
	}
	return false
}

// sortRows orders rows by a column; missing values sort first, ties keep insertion order.
func sortRows(rows []Row, order *Order) {
	if order == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i][order.Field]
		b, bok := rows[j][order.Field]
		var less bool
		switch {
		case !aok && !bok:
			return false
		case !aok:
			less = true
		case !bok:
			less = false
		default:
			c, ok := compareValues(a, b)
			if !ok || c == 0 {
				return false
			}
			less = c < 0
		}
		if order.Ascending {
			return less
		}
		return !less
	})
}

func paginate(rows []Row, page *Page) []Row {
	if page == nil {
		return rows
	}
	if page.Offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[page.Offset:]
	if size := page.Size(); size > 0 && size < len(rows) {
		rows = rows[:size]
	}
	return rows
}

// compareValues orders two stored values. ok is false when they are not comparable.
func compareValues(a, b interface{}) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case primitive.DateTime:
		return t.Time()
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}
