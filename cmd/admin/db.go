package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vicksonzero/shroom-io/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/shroom.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	owner := fs.Int("owner", -1, "owner player id filter (kills)")
	code := fs.String("code", "", "error code filter (rejections)")
	_ = fs.Parse(args)

	q := "sessions"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "shroom.sqlite")
	}

	db, err := indexdb.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()

	switch q {
	case "sessions":
		rows, err := indexdb.Sessions(ctx, db, *limit)
		exitOnErr(err)
		for _, r := range rows {
			printJSON(r)
		}
	case "kills":
		rows, err := indexdb.Kills(ctx, db, *owner, *limit)
		exitOnErr(err)
		for _, r := range rows {
			printJSON(r)
		}
	case "rejections":
		rows, err := indexdb.Rejections(ctx, db, strings.TrimSpace(*code), *limit)
		exitOnErr(err)
		for _, r := range rows {
			printJSON(r)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want sessions|kills|rejections)")
		os.Exit(2)
	}
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
