// Command flowprep turns an OD trip CSV into the flow map dataset artifacts
// and optionally mirrors them into SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/weipengdeng/flowmap/internal/config"
	"github.com/weipengdeng/flowmap/internal/database"
	"github.com/weipengdeng/flowmap/internal/dataset"
	"github.com/weipengdeng/flowmap/internal/ingest"
	"github.com/weipengdeng/flowmap/internal/middleware"
	"github.com/weipengdeng/flowmap/internal/repository"
)

func main() {
	cfg := config.Load()

	in := flag.String("in", "", "input OD CSV file (required)")
	out := flag.String("out", cfg.DataDir, "output directory for the JSON artifacts")
	aliases := flag.String("aliases", cfg.AliasFile, "TOML file with column alias overrides")
	source := flag.String("source", cfg.SourceName, "source name recorded in meta.json (defaults to -in)")
	dbPath := flag.String("db", cfg.DBPath, "also mirror the dataset into this SQLite file (empty to skip)")
	token := flag.String("token", "", "print an admin token for this subject and exit")
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("flowprep: ")

	if *token != "" {
		signed, err := middleware.IssueToken(cfg.JWTSecret, *token, middleware.AdminRole, cfg.TokenTTL)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(signed)
		return
	}

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *in, *out, *aliases, *source, *dbPath); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, in, out, aliasPath, source, dbPath string) error {
	aliases, err := ingest.LoadAliases(aliasPath)
	if err != nil {
		return err
	}

	ds, err := dataset.BuildFile(ctx, in, dataset.Options{
		Source: source,
		Ingest: ingest.Options{Aliases: aliases},
	})
	if err != nil {
		return err
	}

	if err := dataset.Write(ctx, out, ds); err != nil {
		return err
	}

	if dbPath != "" {
		conn, err := database.Open(database.Config{Path: dbPath})
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := database.NewMigrationManager(conn).RunMigrations(); err != nil {
			return err
		}
		if err := repository.NewDatasetRepository(conn).SaveDataset(ctx, ds); err != nil {
			return err
		}
	}

	st := ds.Stats
	log.Printf("%d rows read, %d accepted, %d skipped -> %d nodes, %d destinations, %d flows in %s",
		st.RowsRead, st.RowsAccepted, st.RowsSkipped,
		len(ds.Nodes), len(ds.Destinations), len(ds.Flows), out)
	return nil
}
