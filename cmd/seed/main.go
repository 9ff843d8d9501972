// Command seed fills the configured store with a demo logistics dataset: depots,
// products, a fleet, routes with deliveries, stock levels, daily rollups and an
// admin user.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/auth"
	"github.com/ukydev/logistics-dashboard/internal/config"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/services"
)

// Location is a point given as latitude and longitude.
type Location struct {
	Lat float64
	Lon float64
}

type city struct {
	Name string
	At   Location
}

var cities = []city{
	{"London", Location{Lat: 51.5074, Lon: -0.1278}},
	{"Paris", Location{Lat: 48.8566, Lon: 2.3522}},
	{"Madrid", Location{Lat: 40.4168, Lon: -3.7038}},
	{"Berlin", Location{Lat: 52.5200, Lon: 13.4050}},
	{"Cardiff", Location{Lat: 51.4816, Lon: -3.1791}},
	{"Istanbul", Location{Lat: 41.0082, Lon: 28.9784}},
}

var catalogue = []struct {
	Name     string
	Category string
	Price    float64
}{
	{"Pallet wrap", "packaging", 12.50},
	{"Cardboard box L", "packaging", 1.20},
	{"Bottled water 24x", "beverages", 6.80},
	{"Office chair", "furniture", 89.00},
	{"LED panel", "electrical", 34.99},
	{"Tyre 205/55", "automotive", 72.40},
}

func jitterLocation(rng *rand.Rand, base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rng.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rng.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

func pointOf(l models.Location) Location {
	return Location{Lat: l.Lat(), Lon: l.Lon()}
}

func haversineKm(a, b Location) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

// Options sizes the generated dataset.
type Options struct {
	Days          int
	RoutesPerDay  int
	AdminUsername string
	AdminPassword string
}

// Summary counts what was written.
type Summary struct {
	Locations  int
	Products   int
	Vehicles   int
	Drivers    int
	Routes     int
	Deliveries int
	Inventory  int
	Rollups    int
}

// Seeder writes the demo dataset to a store.
type Seeder struct {
	store     db.Store
	auth      *auth.Service
	analytics *services.AnalyticsService
	rng       *rand.Rand
	now       time.Time
	log       log.FieldLogger
}

func NewSeeder(store db.Store, authService *auth.Service, rng *rand.Rand, now time.Time, logger log.FieldLogger) *Seeder {
	return &Seeder{
		store:     store,
		auth:      authService,
		analytics: services.NewAnalyticsService(store, logger),
		rng:       rng,
		now:       now.UTC(),
		log:       logger,
	}
}

func (s *Seeder) insert(ctx context.Context, table string, record interface{}) (string, error) {
	row, err := s.store.Insert(ctx, table, record)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", table, err)
	}
	return row[db.FieldID].(string), nil
}

// Run seeds the store and returns what it wrote.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	hash, err := s.auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return sum, err
	}
	users := &db.StoreUserCollection{Store: s.store}
	if _, err := users.InsertUser(ctx, models.User{
		Username:     opts.AdminUsername,
		Email:        opts.AdminUsername + "@example.com",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}); err != nil {
		return sum, fmt.Errorf("insert admin user: %w", err)
	}

	depots := make([]string, 0, len(cities))
	positions := make(map[string]models.Location, len(cities))
	for _, c := range cities {
		at := jitterLocation(s.rng, c.At, 500)
		depot := models.Location{
			Name:        c.Name + " depot",
			Type:        "depot",
			Coordinates: [2]float64{at.Lat, at.Lon},
		}
		id, err := s.insert(ctx, db.TableLocations, depot)
		if err != nil {
			return sum, err
		}
		depots = append(depots, id)
		positions[id] = depot
	}
	sum.Locations = len(depots)

	products := make([]string, 0, len(catalogue))
	for i, p := range catalogue {
		id, err := s.insert(ctx, db.TableProducts, models.Product{
			Name:      p.Name,
			Category:  p.Category,
			SKU:       fmt.Sprintf("SKU-%04d", i+1),
			UnitPrice: p.Price,
		})
		if err != nil {
			return sum, err
		}
		products = append(products, id)
	}
	sum.Products = len(products)

	vehicles := make([]string, 0, 4)
	for i, vtype := range []string{"van", "truck", "EV", "van"} {
		eff := 6 + s.rng.Float64()*8
		id, err := s.insert(ctx, db.TableVehicles, models.Vehicle{
			Name:           fmt.Sprintf("%s-%02d", vtype, i+1),
			Type:           vtype,
			Capacity:       500 + s.rng.Intn(1500),
			Status:         models.VehicleAvailable,
			FuelEfficiency: &eff,
		})
		if err != nil {
			return sum, err
		}
		vehicles = append(vehicles, id)
	}
	sum.Vehicles = len(vehicles)

	drivers := make([]string, 0, 3)
	for i, name := range []string{"Ana Costa", "Ben Okafor", "Chen Wei"} {
		id, err := s.insert(ctx, db.TableDrivers, models.Driver{
			FullName:      name,
			LicenseNumber: fmt.Sprintf("LIC-%05d", 1000+i),
			Status:        "on_duty",
		})
		if err != nil {
			return sum, err
		}
		drivers = append(drivers, id)
	}
	sum.Drivers = len(drivers)

	statuses := []models.DeliveryStatus{
		models.DeliveryCompleted, models.DeliveryCompleted, models.DeliveryCompleted,
		models.DeliveryDelayed, models.DeliveryFailed, models.DeliveryInProgress,
	}
	start := time.Date(s.now.Year(), s.now.Month(), s.now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -opts.Days)
	for d := 0; d < opts.Days; d++ {
		day := start.AddDate(0, 0, d)
		for r := 0; r < opts.RoutesPerDay; r++ {
			from := depots[s.rng.Intn(len(depots))]
			to := depots[s.rng.Intn(len(depots))]
			distance := math.Round(haversineKm(pointOf(positions[from]), pointOf(positions[to]))*10) / 10
			duration := math.Round(distance/60*100) / 100
			created := day.Add(time.Duration(6+s.rng.Intn(10)) * time.Hour)
			vehicle := vehicles[s.rng.Intn(len(vehicles))]
			driver := drivers[s.rng.Intn(len(drivers))]

			routeID, err := s.insert(ctx, db.TableRoutes, models.Route{
				Name:            fmt.Sprintf("%s R%d", day.Format("Jan 02"), r+1),
				StartLocationID: from,
				EndLocationID:   to,
				VehicleID:       &vehicle,
				DriverID:        &driver,
				Status:          models.RouteCompleted,
				Distance:        &distance,
				Duration:        &duration,
				CreatedAt:       created,
			})
			if err != nil {
				return sum, err
			}
			sum.Routes++

			for seq := 1; seq <= 2; seq++ {
				if _, err := s.insert(ctx, db.TableRouteWaypoints, models.RouteWaypoint{
					RouteID:    routeID,
					LocationID: depots[s.rng.Intn(len(depots))],
					Sequence:   seq,
				}); err != nil {
					return sum, err
				}
			}

			for n := 1 + s.rng.Intn(4); n > 0; n-- {
				status := statuses[s.rng.Intn(len(statuses))]
				delivery := models.Delivery{
					RouteID:   routeID,
					ProductID: products[s.rng.Intn(len(products))],
					Quantity:  1 + s.rng.Intn(20),
					Status:    status,
					CreatedAt: created,
				}
				if status == models.DeliveryCompleted {
					at := created.Add(time.Duration(30+s.rng.Intn(240)) * time.Minute)
					delivery.ActualDeliveryTime = &at
				}
				if _, err := s.insert(ctx, db.TableDeliveries, delivery); err != nil {
					return sum, err
				}
				sum.Deliveries++
			}
		}
	}

	for _, loc := range depots {
		for _, p := range products {
			item := models.Inventory{
				ProductID:    p,
				LocationID:   loc,
				Quantity:     s.rng.Intn(120),
				MinStock:     10,
				ReorderPoint: 25,
				LastUpdated:  s.now,
			}
			item.Refresh()
			if _, err := s.insert(ctx, db.TableInventory, item); err != nil {
				return sum, err
			}
			sum.Inventory++
		}
	}

	for d := 0; d < opts.Days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		if _, err := s.analytics.ComputeDailyAnalytics(ctx, date); err != nil {
			return sum, fmt.Errorf("compute rollup for %s: %w", date, err)
		}
		sum.Rollups++
	}
	return sum, nil
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	var store db.Store
	switch cfg.Store {
	case config.StoreMongo:
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())
		mongoStore := db.NewMongoStore(client.Database(cfg.Mongo.Database), db.DefaultSchema)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to create indexes")
		}
		store = mongoStore
	default:
		logger.Warn("Seeding the in-memory store; data is discarded on exit")
		store = db.NewMemoryStore(db.DefaultSchema)
	}

	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create auth service")
	}

	opts := Options{
		Days:          envInt("SEED_DAYS", 14),
		RoutesPerDay:  envInt("SEED_ROUTES_PER_DAY", 3),
		AdminUsername: "admin",
		AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "change-me-now"
	}

	seeder := NewSeeder(store, authService, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now(), logger)
	sum, err := seeder.Run(ctx, opts)
	if err != nil {
		logger.WithError(err).Fatal("Seeding failed")
	}
	logger.WithFields(log.Fields{
		"locations":  sum.Locations,
		"products":   sum.Products,
		"vehicles":   sum.Vehicles,
		"drivers":    sum.Drivers,
		"routes":     sum.Routes,
		"deliveries": sum.Deliveries,
		"inventory":  sum.Inventory,
		"rollups":    sum.Rollups,
	}).Info("Seed completed")
}
