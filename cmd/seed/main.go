package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"careerdev-subscription/internal/config"
	pg "careerdev-subscription/internal/infra/db/postgres"
	"careerdev-subscription/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool))

	n, err := planUC.Seed(ctx)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if n == 0 {
		fmt.Println("plan catalog already present. No changes.")
		return
	}

	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	fmt.Printf("seeded %d plans:\n", n)
	for _, p := range plans {
		fmt.Printf("  - %-10s %6d paise %s\n", p.Name, p.PricePaise, p.Currency)
	}
}
