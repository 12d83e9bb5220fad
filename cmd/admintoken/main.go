package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ryven-shop/internal/config"
	"ryven-shop/internal/service"
)

func main() {
	user := flag.String("user", "", "Operator id the token is issued to")
	ttl := flag.Duration("ttl", 12*time.Hour, "How long the token stays valid")
	flag.Parse()

	if *user == "" {
		fmt.Println("user is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	token, err := service.NewTokens(cfg.JWT.Secret).Issue(*user, service.RoleAdmin, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
