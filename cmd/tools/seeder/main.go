package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedEvent(db)
	seedOperators(db)
	typeIDs := seedTypes(db)
	seedProducts(db, typeIDs)
	seedPromotions(db, typeIDs)

	log.Println("Seeding completed successfully!")
}

func seedEvent(db *sql.DB) {
	fmt.Println("Seeding Event Settings...")
	rates, _ := json.Marshal(map[string]float64{"EUR": 1, "CHF": 2})
	_, err := db.Exec(`
		INSERT INTO event_settings (name, base_currency, rates, round_up, locked)
		SELECT 'Demo Festival', 'EUR', $1, true, false
		WHERE NOT EXISTS (SELECT 1 FROM event_settings);
	`, rates)
	if err != nil {
		log.Printf("Failed to seed event settings: %v", err)
	}
}

func seedOperators(db *sql.DB) {
	operators := []struct {
		Username string
		Display  string
		Role     string
	}{
		{"admin", "Festival Admin", "admin"},
		{"till1", "Till One", "operator"},
		{"till2", "Till Two", "operator"},
	}

	fmt.Println("Seeding Operators...")
	for _, op := range operators {
		hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("Failed to hash seed password: %v", err)
		}
		_, err = db.Exec(`
			INSERT INTO operators (username, display_name, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING;
		`, op.Username, op.Display, hash, op.Role)
		if err != nil {
			log.Printf("Failed to seed operator %s: %v", op.Username, err)
		}
	}
}

func seedTypes(db *sql.DB) map[string]string {
	types := []struct {
		Name  string
		Sort  int
		Color string
	}{
		{"Drinks", 1, "#1e88e5"},
		{"Food", 2, "#e53935"},
		{"Merch", 3, "#43a047"},
	}

	fmt.Println("Seeding Product Types...")
	ids := make(map[string]string)
	for _, t := range types {
		var id string
		err := db.QueryRow(`
			INSERT INTO product_types (name, sort_order, enabled, color)
			VALUES ($1, $2, true, $3)
			ON CONFLICT (name) DO UPDATE SET sort_order = EXCLUDED.sort_order, color = EXCLUDED.color
			RETURNING id;
		`, t.Name, t.Sort, t.Color).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed type %s: %v", t.Name, err)
			continue
		}
		ids[t.Name] = id
	}
	return ids
}

func seedProducts(db *sql.DB, typeIDs map[string]string) {
	products := []struct {
		Name  string
		Type  string
		Price float64
		Promo bool
	}{
		{"Beer", "Drinks", 6, true},
		{"Cola", "Drinks", 4, true},
		{"Water", "Drinks", 3, false},
		{"Chili", "Food", 9, false},
		{"Bratwurst", "Food", 7, false},
		{"T-Shirt", "Merch", 25, false},
		{"Cap", "Merch", 15, false},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		typeID, ok := typeIDs[p.Type]
		if !ok {
			log.Printf("Missing type ID for %s", p.Type)
			continue
		}
		_, err := db.Exec(`
			INSERT INTO products (name, type_id, price, promo_eligible)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price, type_id = EXCLUDED.type_id;
		`, p.Name, typeID, p.Price, p.Promo)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedPromotions(db *sql.DB, typeIDs map[string]string) {
	fmt.Println("Seeding Promotions...")
	typeID, ok := typeIDs["Drinks"]
	if !ok {
		log.Println("Skipping promotion seed: Drinks type not found")
		return
	}
	prices, _ := json.Marshal(map[string]float64{"2": 10, "3": 14, "4": 18})
	_, err := db.Exec(`
		INSERT INTO promotions (type_id, name, prices, max_quantity, incremental_price, incremental_price_10plus)
		VALUES ($1, 'Drink Deal', $2, 4, 4, 10)
		ON CONFLICT (type_id) DO UPDATE SET
			name = EXCLUDED.name,
			prices = EXCLUDED.prices,
			max_quantity = EXCLUDED.max_quantity,
			incremental_price = EXCLUDED.incremental_price,
			incremental_price_10plus = EXCLUDED.incremental_price_10plus;
	`, typeID, prices)
	if err != nil {
		log.Printf("Failed to seed promotion: %v", err)
	}
}
