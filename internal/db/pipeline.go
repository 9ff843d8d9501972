package db

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var mongoOps = map[Op]string{
	OpEq:  "$eq",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
}

// buildPipeline translates a Query into an aggregation pipeline. Filtering, ordering
// and pagination run before join expansion so that joins only touch the returned page.
func buildPipeline(q Query) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if match := matchDocument(q.Filters); len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	if q.Order != nil {
		pipeline = append(pipeline, sortStage(*q.Order))
	}
	if q.Page != nil {
		if q.Page.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(q.Page.Offset)}})
		}
		if size := q.Page.Size(); size > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(size)}})
		}
	}
	for _, j := range q.Joins {
		pipeline = append(pipeline, lookupStages(j)...)
	}
	return pipeline
}

func lookupStages(j Join) []bson.D {
	sub := bson.A{}
	if match := matchDocument(j.Filters); len(match) > 0 {
		sub = append(sub, bson.D{{Key: "$match", Value: match}})
	}
	if j.Order != nil {
		sub = append(sub, sortStage(*j.Order))
	}
	if j.Single {
		sub = append(sub, bson.D{{Key: "$limit", Value: int64(1)}})
	}
	for _, nested := range j.Joins {
		for _, stage := range lookupStages(nested) {
			sub = append(sub, stage)
		}
	}

	stages := []bson.D{{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: j.Table},
		{Key: "localField", Value: j.LocalField},
		{Key: "foreignField", Value: j.ForeignField},
		{Key: "pipeline", Value: sub},
		{Key: "as", Value: j.As},
	}}}}
	if j.Single {
		// A missing element removes the field, matching an absent reference.
		stages = append(stages, bson.D{{Key: "$addFields", Value: bson.D{
			{Key: j.As, Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + j.As, 0}}}},
		}}})
	}
	return stages
}

func matchDocument(filters []Filter) bson.M {
	match := bson.M{}
	var exprs bson.A
	for _, f := range filters {
		if f.Op == OpLteField {
			other, _ := f.Value.(string)
			exprs = append(exprs, bson.M{"$lte": bson.A{"$" + f.Field, "$" + other}})
			continue
		}
		op, ok := mongoOps[f.Op]
		if !ok {
			continue
		}
		cond, _ := match[f.Field].(bson.M)
		if cond == nil {
			cond = bson.M{}
		}
		cond[op] = f.Value
		match[f.Field] = cond
	}
	switch len(exprs) {
	case 0:
	case 1:
		match["$expr"] = exprs[0]
	default:
		match["$expr"] = bson.M{"$and": exprs}
	}
	return match
}

func sortStage(o Order) bson.D {
	dir := -1
	if o.Ascending {
		dir = 1
	}
	keys := bson.D{{Key: o.Field, Value: dir}}
	if o.Field != FieldID {
		// ids are generated in insertion order, which keeps ties stable
		keys = append(keys, bson.E{Key: FieldID, Value: 1})
	}
	return bson.D{{Key: "$sort", Value: keys}}
}
