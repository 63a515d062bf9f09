package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/portfolio-extractor/internal/api"
	"github.com/insightdelivered/portfolio-extractor/internal/extract"
	"github.com/insightdelivered/portfolio-extractor/internal/extractor"
	"github.com/insightdelivered/portfolio-extractor/internal/models"
	"github.com/insightdelivered/portfolio-extractor/internal/parser"
	"github.com/insightdelivered/portfolio-extractor/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	bankFlag := flag.String("bank", "", "Bank: dab, consorsbank, deutschebank (auto-detected if omitted)")
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with .csv/.json extension)")
	formatFlag := flag.String("format", "csv", "Output format: csv or json")
	headerFlag := flag.Bool("header", true, "Include column header row in CSV")
	workersFlag := flag.Int("workers", 4, "Number of documents parsed concurrently")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	addrFlag := flag.String("addr", ":8080", "Listen address for --serve")
	verboseFlag := flag.Bool("verbose", false, "Enable debug logging")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Portfolio Statement Extractor
by Insight Delivered

Extracts securities, trades, dividends and account movements from
German bank settlement PDFs (DAB/BNP Paribas, Consorsbank,
Deutsche Bank) into structured CSV or JSON.

Usage:
  portfolio-extractor [flags] <input.pdf> [input2.pdf ...]
  portfolio-extractor --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect bank and convert
  portfolio-extractor Kauf.pdf

  # Specify bank explicitly, write JSON
  portfolio-extractor --bank=consorsbank --format=json Dividende.pdf

  # Convert a whole folder of settlements into one file
  portfolio-extractor --output=depot.csv statements/*.pdf

  # Run the HTTP API
  portfolio-extractor --serve --addr=:8080
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("portfolio-extractor v%s\n", version)
		os.Exit(0)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *verboseFlag {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	var bank models.BankID
	if *bankFlag != "" {
		bank = models.BankID(strings.ToLower(*bankFlag))
		if _, err := parser.Lookup(bank); err != nil {
			fatalf("Unknown bank %q. Supported: dab, consorsbank, deutschebank\n", *bankFlag)
		}
	}

	engine := extract.New(nil, extract.WithWorkers(*workersFlag), extract.WithLogger(log))

	if *serveFlag {
		serve(engine, log, *addrFlag)
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *formatFlag != "csv" && *formatFlag != "json" {
		fatalf("Unknown format %q. Supported: csv, json\n", *formatFlag)
	}

	docs, err := loadDocuments(flag.Args(), bank, log)
	if err != nil {
		fatalf("%v\n", err)
	}

	items, errs := engine.Extract(context.Background(), docs)
	for _, e := range errs {
		log.Warn().Msg(e.Error())
	}
	log.Info().Int("documents", len(docs)).Int("items", len(items)).Int("errors", len(errs)).Msg("extraction finished")

	outPath := *outputFlag
	if outPath == "" {
		base := strings.TrimSuffix(flag.Arg(0), filepath.Ext(flag.Arg(0)))
		outPath = base + "." + *formatFlag
	}

	if err := writeOutput(outPath, *formatFlag, *headerFlag, items); err != nil {
		fatalf("%v\n", err)
	}
	fmt.Printf("Output: %s\n", outPath)

	if len(errs) > 0 {
		os.Exit(1)
	}
}

func loadDocuments(paths []string, bank models.BankID, log zerolog.Logger) ([]models.Document, error) {
	var docs []models.Document
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
			return nil, fmt.Errorf("expected .pdf file, got %q", path)
		}

		text, err := extractor.Text(path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("source", path).Int("bytes", len(text)).Msg("text extracted")
		docs = append(docs, models.Document{Text: text, Source: filepath.Base(path), Bank: bank})
	}
	return docs, nil
}

func writeOutput(path, format string, header bool, items []models.Item) error {
	if format == "json" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file %q: %w", path, err)
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	w := &writer.CSVWriter{IncludeHeader: header}
	return w.WriteToFile(path, items)
}

func serve(engine *extract.Engine, log zerolog.Logger, addr string) {
	app := fiber.New(fiber.Config{
		AppName:   "portfolio-extractor v" + version,
		BodyLimit: 32 << 20,
	})
	h := &api.Handler{Engine: engine, Log: log}
	h.Register(app)

	log.Info().Str("addr", addr).Msg("listening")
	if err := app.Listen(addr); err != nil {
		fatalf("server failed: %v\n", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
