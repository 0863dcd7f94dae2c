package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	plog "github.com/vicksonzero/shroom-io/internal/persistence/log"
	"github.com/vicksonzero/shroom-io/internal/telemetry"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "telemetry":
			telemetryCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin db|state|telemetry|journal [flags]")
	os.Exit(2)
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:3000", "server base url")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/state"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func telemetryCmd(args []string) {
	fs := flag.NewFlagSet("telemetry", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	last := fs.Int("last", 20, "print only the last N windows (0 for all)")
	_ = fs.Parse(args)

	rows, err := telemetry.ReadWindows(filepath.Join(*dataDir, "telemetry.csv"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	if *last > 0 && len(rows) > *last {
		rows = rows[len(rows)-*last:]
	}
	for _, r := range rows {
		printJSON(r)
	}
}

// journalCmd lists journal files with their entry counts, or prints the
// entries of one file.
func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	file := fs.String("file", "", "print entries of this journal file")
	_ = fs.Parse(args)

	if *file != "" {
		entries, err := plog.ReadSteps(*file)
		for _, e := range entries {
			printJSON(e)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		return
	}

	files, err := plog.JournalFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, path := range files {
		entries, err := plog.ReadSteps(path)
		status := "ok"
		if err != nil {
			status = "truncated"
		}
		var first, last int64
		if len(entries) > 0 {
			first, last = entries[0].Tick, entries[len(entries)-1].Tick
		}
		fmt.Printf("%s entries=%d ticks=%d..%d %s\n", filepath.Base(path), len(entries), first, last, status)
	}
}
