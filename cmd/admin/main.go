// Package main is the one-shot administrative CLI for the document
// repository: schema migration, identity rekeying, and duplicate resolution.
// It exits 0 on success and 1 on any failure requiring operator attention.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mzaikov/docvault/internal/db"
	"github.com/mzaikov/docvault/internal/logger"
	"github.com/mzaikov/docvault/internal/repository"
	"github.com/mzaikov/docvault/internal/service"
	"github.com/mzaikov/docvault/internal/storage"
)

const usage = `usage:
  admin migrate -d <dsn>
  admin rekey   -d <dsn> -old <id> -new <id>
  admin resolve -d <dsn> -owner <id> [-blobs <dir>]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	log := logger.New()
	if err := log.Init("info"); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(ctx, os.Args[2:], log.Log)
	case "rekey":
		err = runRekey(ctx, os.Args[2:], log.Log)
	case "resolve":
		err = runResolve(ctx, os.Args[2:], log.Log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, args []string, zapLogger *zap.Logger) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := fs.String("d", "", "db address")
	_ = fs.Parse(args)

	database, err := db.InitPostgres(*dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	guard := db.NewGuard(database, zapLogger)
	if err := guard.Run(ctx, db.Migrations); err != nil {
		return err
	}
	fmt.Println("schema up to date")
	return nil
}

func runRekey(ctx context.Context, args []string, zapLogger *zap.Logger) error {
	fs := flag.NewFlagSet("rekey", flag.ExitOnError)
	dsn := fs.String("d", "", "db address")
	oldID := fs.String("old", "", "current principal id")
	newID := fs.String("new", "", "replacement principal id")
	_ = fs.Parse(args)

	database, err := db.InitPostgres(*dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	principals := repository.NewPostgresPrincipalRepository(database)
	documents := repository.NewPostgresDocumentRepository(database)
	// Rekeying never touches blobs, so no blob store is wired.
	maintenance := service.NewMaintenanceService(documents, principals, nil, zapLogger)

	result, err := maintenance.Rekey(ctx, *oldID, *newID)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runResolve(ctx context.Context, args []string, zapLogger *zap.Logger) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	dsn := fs.String("d", "", "db address")
	ownerID := fs.String("owner", "", "owner principal id")
	blobRoot := fs.String("blobs", "blobs", "base directory for the filesystem blob store")
	_ = fs.Parse(args)

	database, err := db.InitPostgres(*dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	principals := repository.NewPostgresPrincipalRepository(database)
	documents := repository.NewPostgresDocumentRepository(database)
	maintenance := service.NewMaintenanceService(documents, principals, storage.NewFSBlobStore(*blobRoot), zapLogger)

	result, err := maintenance.ResolveDuplicates(ctx, *ownerID)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
