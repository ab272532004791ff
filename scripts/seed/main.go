package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Seeds demo customers and products. Run the API once first so the
// tables exist.
func main() {
	cfg := mysql.NewConfig()
	cfg.User = getEnv("MYSQL_USER", "ledger")
	cfg.Passwd = getEnv("MYSQL_PASSWORD", "ledger123")
	cfg.Net = "tcp"
	cfg.Addr = getEnv("MYSQL_HOST", "localhost:3306")
	cfg.DBName = getEnv("MYSQL_DATABASE", "receivables")
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping MySQL: %v\nDSN: %s:%s@tcp(%s)/%s",
			err, cfg.User, "***", cfg.Addr, cfg.DBName)
	}

	fmt.Println("Connected to MySQL successfully")

	customers := []struct {
		id          string
		name        string
		creditLimit string
	}{
		{"CUST001", "Abarrotes La Esquina", "5000.00"},
		{"CUST002", "Miscelanea Rosy", "2500.00"},
		{"CUST003", "Tienda Don Pepe", "10000.00"},
		{"CUST004", "Cremeria El Sol", "1500.00"},
		{"CUST005", "Papeleria Central", "0.00"},
	}

	now := time.Now().UTC()
	customerQuery := `
		INSERT INTO customers (id, name, credit_limit, current_debt, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, 1, ?, ?)
		ON DUPLICATE KEY UPDATE
		    name = VALUES(name),
		    credit_limit = VALUES(credit_limit)
	`

	for _, c := range customers {
		if _, err := db.Exec(customerQuery, c.id, c.name, c.creditLimit, now, now); err != nil {
			log.Fatalf("Failed to seed customer %s: %v", c.id, err)
		}
		fmt.Printf("Seeded customer: %s (%s, limit %s)\n", c.id, c.name, c.creditLimit)
	}

	products := []struct {
		id    string
		sku   string
		name  string
		stock string
	}{
		{"PROD001", "750100000001", "Arroz 1kg", "200"},
		{"PROD002", "750100000002", "Frijol negro 1kg", "150"},
		{"PROD003", "750100000003", "Aceite vegetal 1L", "120"},
		{"PROD004", "750100000004", "Azucar estandar 1kg", "180"},
	}

	productQuery := `
		INSERT INTO products (id, sku, name, stock, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		    name = VALUES(name),
		    stock = VALUES(stock)
	`

	for _, p := range products {
		if _, err := db.Exec(productQuery, p.id, p.sku, p.name, p.stock, now); err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.id, err)
		}
		fmt.Printf("Seeded product: %s (%s, stock %s)\n", p.id, p.name, p.stock)
	}

	fmt.Println("\nSeed completed successfully!")
	fmt.Println("You can now test the API with customer IDs: CUST001 to CUST005")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
