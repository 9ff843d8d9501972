package db

// Table names.
const (
	TableLocations      = "locations"
	TableVehicles       = "vehicles"
	TableDrivers        = "drivers"
	TableProducts       = "products"
	TableInventory      = "inventory"
	TableRoutes         = "routes"
	TableRouteWaypoints = "route_waypoints"
	TableDeliveries     = "deliveries"
	TableAnalytics      = "analytics"
	TableUsers          = "users"
)

// Unique declares a set of columns whose combined values may appear at most once per table.
type Unique struct {
	Table  string
	Fields []string
}

// ForeignKey declares that Table.Field references the primary key of References.
// Cascade removes referencing rows when the referenced row is deleted; otherwise
// the delete is rejected while references remain.
type ForeignKey struct {
	Table      string
	Field      string
	References string
	Cascade    bool
}

// Schema holds the integrity constraints a Store enforces.
type Schema struct {
	Uniques     []Unique
	ForeignKeys []ForeignKey
}

// DefaultSchema is the logistics dashboard schema.
var DefaultSchema = Schema{
	Uniques: []Unique{
		{Table: TableProducts, Fields: []string{"sku"}},
		{Table: TableInventory, Fields: []string{"product_id", "location_id"}},
		{Table: TableAnalytics, Fields: []string{"date"}},
		{Table: TableUsers, Fields: []string{"username"}},
		{Table: TableUsers, Fields: []string{"email"}},
	},
	ForeignKeys: []ForeignKey{
		{Table: TableVehicles, Field: "current_location_id", References: TableLocations},
		{Table: TableDrivers, Field: "current_vehicle_id", References: TableVehicles},
		{Table: TableInventory, Field: "product_id", References: TableProducts},
		{Table: TableInventory, Field: "location_id", References: TableLocations},
		{Table: TableRoutes, Field: "start_location_id", References: TableLocations},
		{Table: TableRoutes, Field: "end_location_id", References: TableLocations},
		{Table: TableRoutes, Field: "vehicle_id", References: TableVehicles},
		{Table: TableRoutes, Field: "driver_id", References: TableDrivers},
		{Table: TableRouteWaypoints, Field: "route_id", References: TableRoutes, Cascade: true},
		{Table: TableRouteWaypoints, Field: "location_id", References: TableLocations},
		{Table: TableDeliveries, Field: "route_id", References: TableRoutes},
		{Table: TableDeliveries, Field: "product_id", References: TableProducts},
	},
}

func (s Schema) uniquesFor(table string) []Unique {
	var out []Unique
	for _, u := range s.Uniques {
		if u.Table == table {
			out = append(out, u)
		}
	}
	return out
}

// outgoing returns the foreign keys declared on table.
func (s Schema) outgoing(table string) []ForeignKey {
	var out []ForeignKey
	for _, fk := range s.ForeignKeys {
		if fk.Table == table {
			out = append(out, fk)
		}
	}
	return out
}

// incoming returns the foreign keys that reference table.
func (s Schema) incoming(table string) []ForeignKey {
	var out []ForeignKey
	for _, fk := range s.ForeignKeys {
		if fk.References == table {
			out = append(out, fk)
		}
	}
	return out
}

// referenceValue extracts a foreign key value from a row. Absent, nil and empty
// values are optional references and report false.
func referenceValue(row Row, field string) (string, bool) {
	v, ok := row[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
