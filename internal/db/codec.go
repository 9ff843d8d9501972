package db

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToRow converts a bson-tagged struct (or a map) into a Row.
func ToRow(v interface{}) (Row, error) {
	if r, ok := v.(Row); ok {
		return copyRow(r), nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return copyRow(m), nil
	}
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var row Row
	if err := bson.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return row, nil
}

// Decode fills out from a Row using the bson tags of out.
func Decode(row Row, out interface{}) error {
	data, err := bson.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if err := bson.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// DecodeAll decodes every row into a slice of T.
func DecodeAll[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := Decode(row, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// NewID returns a fresh opaque record identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// Timestamp converts a time into the stored representation.
func Timestamp(t time.Time) primitive.DateTime {
	return primitive.NewDateTimeFromTime(t)
}

func copyRow(r map[string]interface{}) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
