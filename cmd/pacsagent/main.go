package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mijuny/pacs-agent/internal/audit"
	"github.com/mijuny/pacs-agent/internal/config"
	"github.com/mijuny/pacs-agent/internal/keyfile"
	"github.com/mijuny/pacs-agent/internal/logging"
	"github.com/mijuny/pacs-agent/internal/orchestrator"
	"github.com/mijuny/pacs-agent/internal/pacsclient"
	"github.com/mijuny/pacs-agent/internal/verify"
)

func main() {
	globalFlags := flag.NewFlagSet("pacs-agent", flag.ExitOnError)
	configPath := globalFlags.String("config", "config/ahjo.yaml", "path to YAML config file")
	human := globalFlags.Bool("human", false, "human-readable output (default: JSON)")
	var verbose bool
	globalFlags.BoolVar(&verbose, "v", false, "verbose logging")
	globalFlags.BoolVar(&verbose, "verbose", false, "verbose logging (alias of -v)")

	if len(os.Args) < 2 {
		errorOut("usage: pacs-agent [--config PATH] [--human] [-v|--verbose] <echo|query|load|status|audit> ...")
	}

	flagTokens, rest := splitArgs(globalFlags, os.Args[1:])
	globalFlags.Parse(flagTokens)
	if len(rest) < 1 {
		errorOut("usage: pacs-agent [--config PATH] [--human] [-v|--verbose] <echo|query|load|status|audit> ...")
	}
	command := rest[0]
	args := rest[1:]

	log := logging.New(verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		errorOut(fmt.Sprintf("config file not found or invalid: %v", err))
	}

	switch command {
	case "echo":
		cmdEcho(cfg, *human)
	case "query":
		if len(args) < 1 {
			errorOut("query requires an accession number")
		}
		cmdQuery(cfg, args[0], *human)
	case "load":
		cmdLoad(cfg, log, args, *human)
	case "status":
		if len(args) < 1 {
			errorOut("status requires a project name")
		}
		cmdStatus(cfg, args[0], *human)
	case "audit":
		cmdAudit(cfg, args, *human)
	default:
		errorOut(fmt.Sprintf("unknown command %q", command))
	}
}

func cmdEcho(cfg *config.Config, human bool) {
	client := pacsclient.New(cfg)
	ok, err := client.Echo()
	if err != nil {
		errorOut(fmt.Sprintf("C-ECHO failed: %v", err))
	}
	status := "failed"
	if ok {
		status = "success"
	}
	output(map[string]interface{}{
		"status":   "ok",
		"pacs":     fmt.Sprintf("%s:%d", cfg.PACS.Host, cfg.PACS.Port),
		"ae_title": cfg.PACS.AETitle,
		"echo":     status,
	}, human)
	if !ok {
		os.Exit(1)
	}
}

func cmdQuery(cfg *config.Config, accession string, human bool) {
	client := pacsclient.New(cfg)
	studies, err := client.FindByAccession(accession)
	if err != nil {
		errorOut(fmt.Sprintf("C-FIND failed: %v", err))
	}
	output(map[string]interface{}{
		"status":    "ok",
		"accession": accession,
		"results":   studies,
	}, human)
}

func cmdLoad(cfg *config.Config, log *logging.Logger, args []string, human bool) {
	loadFlags := flag.NewFlagSet("load", flag.ExitOnError)
	accessionFile := loadFlags.String("file", "", "file with accession numbers, one per line")
	dryRun := loadFlags.Bool("dry-run", false, "query only, don't retrieve images")
	flagTokens, positional := splitArgs(loadFlags, args)
	loadFlags.Parse(flagTokens)

	if len(positional) < 1 {
		errorOut("load requires a project name")
	}
	project := positional[0]
	accessions := append([]string(nil), positional[1:]...)

	if *accessionFile != "" {
		data, err := os.ReadFile(*accessionFile)
		if err != nil {
			errorOut(fmt.Sprintf("accession file not found: %v", err))
		}
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			accessions = append(accessions, trimmed)
		}
	}

	if len(accessions) == 0 {
		errorOut("no accession numbers provided")
	}

	o := orchestrator.New(cfg, log)
	outcome, err := o.Load(project, accessions, *dryRun)
	if err != nil {
		errorOut(fmt.Sprintf("load failed: %v", err))
	}

	output(map[string]interface{}{
		"status":       "ok",
		"project":      project,
		"results":      outcome.Results,
		"verification": outcome.Verification,
	}, human)
}

func cmdStatus(cfg *config.Config, project string, human bool) {
	projectDir := filepath.Join(cfg.Output.BaseDir, project)
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		output(map[string]interface{}{
			"status":  "ok",
			"project": project,
			"exists":  false,
			"cases":   0,
		}, human)
		return
	}

	keyPath := filepath.Join(projectDir, "key.csv")
	entries, err := keyfile.Read(keyPath)
	if err != nil {
		errorOut(fmt.Sprintf("read key file: %v", err))
	}

	totalImages := 0
	for _, e := range entries {
		totalImages += e.ImageCount
	}
	outliers := verify.Project(entries)

	output(map[string]interface{}{
		"status":       "ok",
		"project":      project,
		"exists":       true,
		"cases":        len(entries),
		"total_images": totalImages,
		"entries":      entries,
		"outliers":     outliers,
	}, human)
}

func cmdAudit(cfg *config.Config, args []string, human bool) {
	auditFlags := flag.NewFlagSet("audit", flag.ExitOnError)
	allProjects := auditFlags.Bool("all", false, "show all projects")
	last := auditFlags.Int("last", 20, "number of entries to show")
	flagTokens, positional := splitArgs(auditFlags, args)
	auditFlags.Parse(flagTokens)

	var project string
	if len(positional) > 0 {
		project = positional[0]
	}
	if project == "" && !*allProjects {
		errorOut("specify a project name or use --all")
	}
	if *allProjects {
		project = ""
	}

	log, err := audit.Open(cfg.Output.BaseDir)
	if err != nil {
		errorOut(fmt.Sprintf("open audit log: %v", err))
	}
	defer log.Close()

	rows, err := log.Query(project, *last)
	if err != nil {
		errorOut(fmt.Sprintf("query audit log: %v", err))
	}

	output(map[string]interface{}{
		"status":  "ok",
		"entries": rows,
	}, human)
}

// output renders data as a single JSON document unless human is set,
// in which case it prints one "key: value" line per top-level field.
func output(data map[string]interface{}, human bool) {
	if !human {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(data)
		return
	}

	for k, v := range data {
		fmt.Printf("%s: %v\n", k, v)
	}
}

// boolFlag matches the unexported interface the flag package itself
// uses internally to tell boolean flags (which never consume a
// following argument) apart from value flags.
type boolFlag interface {
	IsBoolFlag() bool
}

// splitArgs separates args into the tokens fs recognizes as flags
// (plus their values) and everything else, so flags registered on fs
// can appear anywhere on the command line rather than only before the
// first positional argument, which is all flag.FlagSet.Parse allows on
// its own.
func splitArgs(fs *flag.FlagSet, args []string) (flagArgs, positional []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}

		name := strings.TrimLeft(a, "-")
		hasValue := false
		if eq := strings.Index(name, "="); eq >= 0 {
			name = name[:eq]
			hasValue = true
		}
		f := fs.Lookup(name)
		if f == nil {
			positional = append(positional, a)
			continue
		}
		flagArgs = append(flagArgs, a)
		if hasValue {
			continue
		}
		if bf, ok := f.Value.(boolFlag); ok && bf.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			i++
			flagArgs = append(flagArgs, args[i])
		}
	}
	return flagArgs, positional
}

func errorOut(msg string) {
	enc := json.NewEncoder(os.Stdout)
	enc.Encode(map[string]string{"status": "error", "error": msg})
	os.Exit(1)
}
