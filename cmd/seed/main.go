package main

import (
	"context"
	"log"

	"shopcatalog/core"
)

// Seeds the database with the initial admin account and a small sample
// catalog. Safe to run repeatedly: the admin is only created when missing and
// products are only inserted into an empty catalog.
func main() {
	cfg := core.Load()
	ctx := context.Background()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	userRepo := core.NewPgUserRepository(db)
	if err := core.BootstrapAdmin(ctx, userRepo, cfg); err != nil {
		log.Fatalf("bootstrap admin failed: %v", err)
	}

	productRepo := core.NewPgProductRepository(db)
	count, err := productRepo.Count(ctx)
	if err != nil {
		log.Fatalf("failed to count products: %v", err)
	}
	if count > 0 {
		log.Printf("catalog already has %d products, skipping sample data", count)
		return
	}

	for _, in := range sampleProducts() {
		if _, err := productRepo.Create(ctx, in); err != nil {
			log.Fatalf("failed to create sample product %q: %v", in.Name, err)
		}
	}
	log.Printf("seeded %d sample products", len(sampleProducts()))
}

func sampleProducts() []core.ProductInput {
	strptr := func(s string) *string { return &s }
	return []core.ProductInput{
		{
			Name:        `MacBook Pro 16"`,
			Description: strptr("Powerful laptop for professionals with M3 Pro chip, 16GB RAM, 512GB SSD"),
			Price:       2499.99,
			Category:    "Electronics",
			ImageURL:    strptr("https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=400"),
			Stock:       10,
		},
		{
			Name:        "Wireless Mouse",
			Description: strptr("Ergonomic wireless mouse with precision tracking"),
			Price:       29.99,
			Category:    "Accessories",
			ImageURL:    strptr("https://images.unsplash.com/photo-1527814050087-3793815479db?w=400"),
			Stock:       50,
		},
		{
			Name:        "USB-C Hub",
			Description: strptr("7-in-1 USB-C hub with HDMI, SD card reader, and USB 3.0 ports"),
			Price:       49.99,
			Category:    "Accessories",
			ImageURL:    strptr("https://images.unsplash.com/photo-1625948515291-69613efd103f?w=400"),
			Stock:       30,
		},
	}
}
