// Command seedadmin creates the first admin account, or promotes an
// existing account to admin.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/printpeak/internal/flagx"
	"github.com/dmitrijs2005/printpeak/internal/seed"
	"github.com/dmitrijs2005/printpeak/internal/server"
	"github.com/dmitrijs2005/printpeak/internal/server/config"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/printpeak/internal/server/services"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	var in seed.Input
	fs := flag.NewFlagSet("seedadmin", flag.ExitOnError)
	fs.StringVar(&in.Name, "name", "", "admin display name")
	fs.StringVar(&in.Email, "email", "", "admin e-mail")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-name", "-email"}))
	in.Password = os.Getenv("PRINTPEAK_ADMIN_PASSWORD")

	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	accounts := services.NewAccountService(db, rm, nil, cfg)
	u, err := seed.Run(ctx, accounts, in, bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("admin ready: %s (%s)", u.Email, u.ID)
}
