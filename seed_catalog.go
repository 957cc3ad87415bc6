package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
)

type seedService struct {
	Name             string
	Slug             string
	Description      string
	BaseFee          float64
	PricePerBedroom  float64
	PricePerBathroom float64
	DurationMinutes  int
	SortOrder        int
}

type seedArea struct {
	Name               string
	Suburb             string
	State              string
	PriceAdjustmentPct float64
}

type seedExtra struct {
	Name        string
	Description string
	Price       float64
	SortOrder   int
}

// seedCatalog inserts the starter services, areas and extras. Runs only
// when SEED_CATALOG=true and skips anything already present, so it is safe
// to leave enabled across restarts.
func seedCatalog() {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Println("❌ DB_URL not set, skipping catalog seed")
		return
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Printf("❌ Catalog seed could not open database: %v", err)
		return
	}
	defer db.Close()

	services := []seedService{
		{"Regular Clean", "regular-clean", "A standard weekly or fortnightly home clean covering all living areas, kitchen and bathrooms.", 89, 15, 20, 120, 1},
		{"Deep Clean", "deep-clean", "A thorough top-to-bottom clean including skirting boards, light fittings and behind furniture.", 159, 25, 35, 240, 2},
		{"End of Lease Clean", "end-of-lease-clean", "Bond-back clean to the standard required by property managers, with a 72-hour re-clean guarantee.", 249, 35, 45, 360, 3},
		{"Office Clean", "office-clean", "After-hours cleaning for small offices and studios.", 119, 0, 25, 150, 4},
	}

	areas := []seedArea{
		{"Sydney CBD", "Sydney", "NSW", 10},
		{"Inner West", "Newtown", "NSW", 0},
		{"Eastern Suburbs", "Bondi", "NSW", 5},
		{"North Shore", "Chatswood", "NSW", 5},
		{"Melbourne CBD", "Melbourne", "VIC", 10},
		{"Inner North", "Fitzroy", "VIC", 0},
		{"Bayside", "St Kilda", "VIC", 5},
	}

	extras := []seedExtra{
		{"Inside Oven", "Degrease and clean the oven interior, racks and door glass.", 45, 1},
		{"Inside Fridge", "Empty shelf wipe-down and interior clean.", 35, 2},
		{"Inside Windows", "Interior glass and sills, per home.", 40, 3},
		{"Inside Cabinets", "Empty kitchen cabinets wiped inside and out.", 30, 4},
		{"Balcony", "Sweep and mop of one balcony or patio.", 25, 5},
		{"Laundry & Ironing", "One load washed, dried and folded.", 35, 6},
	}

	seeded := 0

	for _, s := range services {
		var exists bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM services WHERE slug = $1)", s.Slug).Scan(&exists); err != nil {
			log.Printf("❌ Catalog seed service check failed: %v", err)
			return
		}
		if exists {
			continue
		}
		_, err := db.Exec(`
			INSERT INTO services (name, slug, description, base_fee, price_per_bedroom, price_per_bathroom, duration_minutes, is_active, sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, NOW(), NOW())`,
			s.Name, s.Slug, s.Description, s.BaseFee, s.PricePerBedroom, s.PricePerBathroom, s.DurationMinutes, s.SortOrder)
		if err != nil {
			log.Printf("❌ Catalog seed failed for service %s: %v", s.Slug, err)
			return
		}
		seeded++
	}

	for _, a := range areas {
		var exists bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM areas WHERE suburb = $1 AND state = $2)", a.Suburb, a.State).Scan(&exists); err != nil {
			log.Printf("❌ Catalog seed area check failed: %v", err)
			return
		}
		if exists {
			continue
		}
		_, err := db.Exec(`
			INSERT INTO areas (name, suburb, state, price_adjustment_pct, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, NOW(), NOW())`,
			a.Name, a.Suburb, a.State, a.PriceAdjustmentPct)
		if err != nil {
			log.Printf("❌ Catalog seed failed for area %s: %v", a.Suburb, err)
			return
		}
		seeded++
	}

	for _, e := range extras {
		var exists bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM service_extras WHERE name = $1)", e.Name).Scan(&exists); err != nil {
			log.Printf("❌ Catalog seed extra check failed: %v", err)
			return
		}
		if exists {
			continue
		}
		_, err := db.Exec(`
			INSERT INTO service_extras (name, description, price, is_active, sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, true, $4, NOW(), NOW())`,
			e.Name, e.Description, e.Price, e.SortOrder)
		if err != nil {
			log.Printf("❌ Catalog seed failed for extra %s: %v", e.Name, err)
			return
		}
		seeded++
	}

	if seeded > 0 {
		log.Printf("✅ Catalog seed inserted %d rows", seeded)
	} else {
		log.Println("✅ Catalog already seeded")
	}
}
