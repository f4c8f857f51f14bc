package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"decision-ai/internal/config"
	"decision-ai/internal/service"
)

// token emite un token de lectura para un dashboard protegido con DASHBOARD_JWT_SECRET.
func main() {
	viewer := flag.String("viewer", "", "name of the person the token is issued to")
	days := flag.Int("days", 0, "token lifetime in days (default DASHBOARD_TOKEN_TTL_DAYS)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DashboardJWTSecret == "" {
		log.Fatal("DASHBOARD_JWT_SECRET is not set")
	}
	if *viewer == "" {
		log.Fatal("-viewer is required")
	}

	ttlDays := cfg.DashboardTokenTTLDays
	if *days > 0 {
		ttlDays = *days
	}
	tokens := service.NewViewerTokenService(cfg.DashboardJWTSecret, time.Duration(ttlDays)*24*time.Hour)
	token, expiresAt, err := tokens.Issue(*viewer)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
	fmt.Printf("expires %s; open http://localhost:%s/?token=%s\n", expiresAt.Format(time.RFC3339), cfg.HTTPPort, token)
}
