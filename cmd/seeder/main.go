package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/database"
	"github.com/lowilleq/exterra/internal/models"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/services"
	"github.com/lowilleq/exterra/internal/utils"
)

var (
	productMaterials = []string{"Oak", "Walnut", "Brass", "Linen", "Marble"}
	productKinds     = []string{"Chair", "Side Table", "Lamp", "Mirror"}
	firstNames       = []string{"Ana", "Bram", "Chloé", "Daan", "Emma"}
	lastNames        = []string{"Ng", "Peeters", "Dubois", "Janssens"}
	locales          = []string{"nl", "fr", "en"}
)

func main() {
	reset := flag.Bool("reset", false, "drop and recreate the tables before seeding")
	demo := flag.Bool("demo", false, "also register demo customers and scans")
	flag.Parse()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	ctx := context.Background()

	if *reset {
		if err := db.Migrator().DropTable(&models.Scan{}, &models.Customer{}, &models.Product{}); err != nil {
			log.Fatalf("drop tables: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	products := seedProducts(ctx, db)
	log.Printf("[Seeder] %d products", len(products))

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		hash, err := utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("admin password: %v", err)
		}
		if _, err := repository.NewAdminRepository(db).Ensure(ctx, cfg.AdminEmail, hash); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		log.Printf("[Seeder] admin %s", cfg.AdminEmail)
	}

	if *demo {
		seedVisits(ctx, db, cfg, products)
	}
}

func seedProducts(ctx context.Context, db *gorm.DB) []models.Product {
	repo := repository.NewProductRepository(db)
	var out []models.Product
	for _, material := range productMaterials {
		for _, kind := range productKinds {
			description := fmt.Sprintf("Handmade %s %s.", material, kind)
			product := models.Product{
				Name:        fmt.Sprintf("%s %s", material, kind),
				Price:       float64(rand.IntN(90000)+1000) / 100,
				Description: &description,
				Status:      models.ProductStatusAvailable,
			}
			if rand.IntN(5) == 0 {
				product.Status = models.ProductStatusSold
			}
			if err := repo.Create(ctx, &product); err != nil {
				log.Fatalf("create product %s: %v", product.Name, err)
			}
			out = append(out, product)
		}
	}
	return out
}

// seedVisits drives the same resolver and recorder the server uses.
func seedVisits(ctx context.Context, db *gorm.DB, cfg *config.Config, products []models.Product) {
	resolver := services.NewIdentityResolver(repository.NewCustomerRepository(db), cfg.IdentityTTL)
	recorder := services.NewScanRecorder(repository.NewScanRepository(db), nil, cfg.ScanTimeout)

	visits := 0
	for _, first := range firstNames {
		for _, last := range lastNames {
			email := fmt.Sprintf("%s.%s.%s@example.com", first, last, uuid.NewString()[:4])
			identity, err := resolver.Register(ctx, services.NewMemoryIdentityCache(time.Now), email, first, last)
			if err != nil {
				log.Fatalf("register %s: %v", email, err)
			}
			for i := 0; i < 1+rand.IntN(4); i++ {
				product := products[rand.IntN(len(products))]
				if _, err := recorder.Record(ctx, identity, product.ID, locales[rand.IntN(len(locales))]); err != nil {
					log.Fatalf("record scan: %v", err)
				}
				visits++
			}
		}
	}
	log.Printf("[Seeder] %d customers, %d scans", len(firstNames)*len(lastNames), visits)
}
