package db

import (
	"context"
	"time"

	"github.com/ukydev/logistics-dashboard/internal/models"
)

// UserCollection defines the user lookups used by login and token checks
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// StoreUserCollection implements UserCollection on any Store
type StoreUserCollection struct {
	Store Store
}

// InsertUser inserts a new active user
func (c *StoreUserCollection) InsertUser(ctx context.Context, user models.User) (*models.User, error) {
	user.IsActive = true
	row, err := c.Store.Insert(ctx, TableUsers, user)
	if err != nil {
		return nil, err
	}
	var created models.User
	if err := Decode(row, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// FindUserByID finds a user by their ID
func (c *StoreUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	row, err := c.Store.GetByID(ctx, TableUsers, id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := Decode(row, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByUsername finds a user by their username
func (c *StoreUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := c.Store.Query(ctx, Query{
		Table:   TableUsers,
		Filters: []Filter{Eq("username", username)},
		Page:    &Page{Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &BackendError{Code: CodeNoRows, Message: "no rows returned", Details: "user " + username}
	}
	var user models.User
	if err := Decode(rows[0], &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin updates the last login time for a user
func (c *StoreUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := c.Store.Update(ctx, TableUsers, id, Row{"last_login": Timestamp(time.Now())})
	return err
}
