package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on a MongoDB database, one collection per table.
// Joins run as $lookup stages, which needs MongoDB 5.0 or newer.
type MongoStore struct {
	DB     *mongo.Database
	Schema Schema
}

// NewMongoStore creates a store on db enforcing schema.
func NewMongoStore(db *mongo.Database, schema Schema) *MongoStore {
	return &MongoStore{DB: db, Schema: schema}
}

// EnsureIndexes creates the unique indexes of the schema and the indexes used by
// the dashboard scans (creation date windows and per-location inventory).
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if s.DB == nil {
		return errNilDatabase
	}
	for _, u := range s.Schema.Uniques {
		keys := bson.D{}
		for _, f := range u.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		model := mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
		if _, err := s.DB.Collection(u.Table).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create unique index on %s%v: %w", u.Table, u.Fields, err)
		}
	}
	scans := []struct {
		table string
		field string
	}{
		{TableDeliveries, "created_at"},
		{TableDeliveries, "route_id"},
		{TableRoutes, "created_at"},
		{TableRoutes, "driver_id"},
		{TableRoutes, "vehicle_id"},
		{TableRouteWaypoints, "route_id"},
		{TableInventory, "location_id"},
	}
	for _, sc := range scans {
		model := mongo.IndexModel{Keys: bson.D{{Key: sc.field, Value: 1}}}
		if _, err := s.DB.Collection(sc.table).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s.%s: %w", sc.table, sc.field, err)
		}
	}
	return nil
}

var errNilDatabase = &BackendError{Code: CodeInternal, Message: "mongo database is nil"}

// Insert inserts record, assigning an id and timestamps when absent.
func (s *MongoStore) Insert(ctx context.Context, table string, record interface{}) (Row, error) {
	if s.DB == nil {
		return nil, errNilDatabase
	}
	row, err := ToRow(record)
	if err != nil {
		return nil, &BackendError{Code: CodeInvalidQuery, Message: "invalid record", Err: err}
	}
	stampInsert(row, time.Now())

	if err := s.checkOutgoing(ctx, table, row); err != nil {
		return nil, err
	}
	if _, err := s.DB.Collection(table).InsertOne(ctx, row); err != nil {
		return nil, translateError(err)
	}
	return row, nil
}

// Update applies patch with $set and returns the updated row.
func (s *MongoStore) Update(ctx context.Context, table string, id string, patch Row) (Row, error) {
	if s.DB == nil {
		return nil, errNilDatabase
	}
	if err := s.checkOutgoing(ctx, table, patch); err != nil {
		return nil, err
	}
	set := bson.M{}
	for k, v := range patch {
		if k == FieldID || k == "created_at" {
			continue
		}
		set[k] = v
	}
	set["updated_at"] = Timestamp(time.Now())

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var row Row
	err := s.DB.Collection(table).FindOneAndUpdate(ctx, bson.M{FieldID: id}, bson.M{"$set": set}, opts).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, noRows(table, id)
		}
		return nil, translateError(err)
	}
	return row, nil
}

// Delete removes a row, cascading or rejecting per schema.
func (s *MongoStore) Delete(ctx context.Context, table string, id string) error {
	if s.DB == nil {
		return errNilDatabase
	}
	for _, fk := range s.Schema.incoming(table) {
		if fk.Cascade {
			continue
		}
		n, err := s.DB.Collection(fk.Table).CountDocuments(ctx, bson.M{fk.Field: id}, options.Count().SetLimit(1))
		if err != nil {
			return translateError(err)
		}
		if n > 0 {
			return referencedViolation(fk, id)
		}
	}

	result, err := s.DB.Collection(table).DeleteOne(ctx, bson.M{FieldID: id})
	if err != nil {
		return translateError(err)
	}
	if result.DeletedCount == 0 {
		return noRows(table, id)
	}

	for _, fk := range s.Schema.incoming(table) {
		if !fk.Cascade {
			continue
		}
		if _, err := s.DB.Collection(fk.Table).DeleteMany(ctx, bson.M{fk.Field: id}); err != nil {
			return translateError(err)
		}
	}
	return nil
}

// GetByID returns the row with the given id.
func (s *MongoStore) GetByID(ctx context.Context, table string, id string) (Row, error) {
	if s.DB == nil {
		return nil, errNilDatabase
	}
	var row Row
	err := s.DB.Collection(table).FindOne(ctx, bson.M{FieldID: id}).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, noRows(table, id)
		}
		return nil, translateError(err)
	}
	return row, nil
}

// Query runs q as an aggregation pipeline.
func (s *MongoStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if s.DB == nil {
		return nil, errNilDatabase
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	cursor, err := s.DB.Collection(q.Table).Aggregate(ctx, buildPipeline(q))
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	rows := make([]Row, 0)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (s *MongoStore) checkOutgoing(ctx context.Context, table string, row Row) error {
	for _, fk := range s.Schema.outgoing(table) {
		ref, ok := referenceValue(row, fk.Field)
		if !ok {
			continue
		}
		n, err := s.DB.Collection(fk.References).CountDocuments(ctx, bson.M{FieldID: ref}, options.Count().SetLimit(1))
		if err != nil {
			return translateError(err)
		}
		if n == 0 {
			return foreignKeyViolation(fk, ref)
		}
	}
	return nil
}

// MongoDB server error codes mapped onto backend codes.
const (
	mongoUnauthorized         = 13
	mongoAuthenticationFailed = 18
	mongoDocumentValidation   = 121
)

// translateError converts a driver error into a *BackendError.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return &BackendError{Code: CodeNoRows, Message: "no rows returned", Err: err}
	case mongo.IsDuplicateKeyError(err):
		return &BackendError{
			Code:    CodeUniqueViolation,
			Message: "duplicate key value violates unique constraint",
			Details: err.Error(),
			Err:     err,
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return &BackendError{Code: CodeInternal, Message: "request cancelled", Details: err.Error(), Err: err}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case mongoUnauthorized:
			return &BackendError{Code: CodeInsufficientPrivilege, Message: "permission denied", Details: cmdErr.Message, Err: err}
		case mongoAuthenticationFailed:
			return &BackendError{Code: CodeInvalidPassword, Message: "authentication failed", Details: cmdErr.Message, Err: err}
		}
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == mongoDocumentValidation {
				return &BackendError{Code: CodeCheckViolation, Message: "document failed validation", Details: we.Message, Err: err}
			}
		}
	}
	return &BackendError{Code: CodeInternal, Message: "mongo operation failed", Details: err.Error(), Err: err}
}
