package services

import (
	"context"

	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
)

// ListOptions orders and pages a plain table read.
type ListOptions struct {
	Order *db.Order
	Page  *db.Page
}

// Records is the generic accessor for one table. Every failure is mapped through
// apperr.FromBackend and then apperr.Handle, so callers only see *apperr.Error.
type Records[T any] struct {
	store db.Store
	table string
}

func NewRecords[T any](store db.Store, table string) *Records[T] {
	return &Records[T]{store: store, table: table}
}

func accessorError(err error) error {
	return apperr.Handle(apperr.FromBackend(err))
}

// Create validates rec and inserts it.
func (r *Records[T]) Create(ctx context.Context, rec *T) (*T, error) {
	if err := validateStruct(rec); err != nil {
		return nil, err
	}
	row, err := r.store.Insert(ctx, r.table, rec)
	if err != nil {
		return nil, accessorError(err)
	}
	out, err := decodeOne[T](row)
	if err != nil {
		return nil, accessorError(err)
	}
	return out, nil
}

// Update applies patch to the row with the given id.
func (r *Records[T]) Update(ctx context.Context, id string, patch db.Row) (*T, error) {
	if len(patch) == 0 {
		return nil, apperr.Validation("No fields to update", nil)
	}
	row, err := r.store.Update(ctx, r.table, id, patch)
	if err != nil {
		return nil, accessorError(err)
	}
	out, err := decodeOne[T](row)
	if err != nil {
		return nil, accessorError(err)
	}
	return out, nil
}

func (r *Records[T]) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.table, id); err != nil {
		return accessorError(err)
	}
	return nil
}

func (r *Records[T]) Get(ctx context.Context, id string) (*T, error) {
	row, err := r.store.GetByID(ctx, r.table, id)
	if err != nil {
		return nil, accessorError(err)
	}
	out, err := decodeOne[T](row)
	if err != nil {
		return nil, accessorError(err)
	}
	return out, nil
}

// List returns every row of the table, ordered and paged.
func (r *Records[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	rows, err := r.store.Query(ctx, db.Query{Table: r.table, Order: opts.Order, Page: opts.Page})
	if err != nil {
		return nil, accessorError(err)
	}
	out, err := db.DecodeAll[T](rows)
	if err != nil {
		return nil, accessorError(err)
	}
	return out, nil
}
