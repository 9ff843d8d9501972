package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Row is a single stored record, keyed by column name. Joined records appear as
// nested rows (single joins) or arrays of rows (many joins).
type Row = bson.M

// FieldID is the primary key column of every table.
const FieldID = "_id"

// Store is the backend record accessor. Implementations report every failure as a
// *BackendError so callers can map it by code.
type Store interface {
	Insert(ctx context.Context, table string, record interface{}) (Row, error)
	Update(ctx context.Context, table string, id string, patch Row) (Row, error)
	Delete(ctx context.Context, table string, id string) error
	GetByID(ctx context.Context, table string, id string) (Row, error)
	Query(ctx context.Context, q Query) ([]Row, error)
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	// OpLteField compares two columns of the same row; Value holds the other column name.
	OpLteField Op = "lte_field"
)

// Filter restricts a query to rows whose Field satisfies Op against Value.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Eq matches rows where field equals value.
func Eq(field string, value interface{}) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// Gte matches rows where field is greater than or equal to value.
func Gte(field string, value interface{}) Filter { return Filter{Field: field, Op: OpGte, Value: value} }

// Lte matches rows where field is less than or equal to value.
func Lte(field string, value interface{}) Filter { return Filter{Field: field, Op: OpLte, Value: value} }

// LteField matches rows where field is less than or equal to the other column.
func LteField(field, other string) Filter { return Filter{Field: field, Op: OpLteField, Value: other} }

// Order sorts results by a single column.
type Order struct {
	Field     string
	Ascending bool
}

// Page limits the result window. An offset without a limit yields DefaultPageSize rows.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageSize is the row count used when only an offset is given.
const DefaultPageSize = 10

// Size returns the number of rows the page spans, or 0 for unlimited.
func (p Page) Size() int {
	if p.Limit > 0 {
		return p.Limit
	}
	if p.Offset > 0 {
		return DefaultPageSize
	}
	return 0
}

// Join expands a referenced table into each result row under As.
// Rows of Table whose ForeignField equals the row's LocalField are attached;
// Single attaches the first match (or nothing), otherwise an array is attached.
type Join struct {
	As           string
	Table        string
	LocalField   string
	ForeignField string
	Single       bool
	Filters      []Filter
	Order        *Order
	Joins        []Join
}

// One joins a single referenced row through a foreign key column of the parent.
func One(as, table, localField string) Join {
	return Join{As: as, Table: table, LocalField: localField, ForeignField: FieldID, Single: true}
}

// Many joins every row of table that references the parent through foreignField.
func Many(as, table, foreignField string) Join {
	return Join{As: as, Table: table, LocalField: FieldID, ForeignField: foreignField}
}

// Query describes a filtered, ordered, paginated read with optional join expansion.
type Query struct {
	Table   string
	Filters []Filter
	Order   *Order
	Page    *Page
	Joins   []Join
}
