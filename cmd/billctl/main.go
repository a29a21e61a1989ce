package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dheryaagarwal/energy-bill-extractor/client"
	"github.com/dheryaagarwal/energy-bill-extractor/config"
	"github.com/dheryaagarwal/energy-bill-extractor/dto"
	"github.com/dheryaagarwal/energy-bill-extractor/repository"
	"github.com/dheryaagarwal/energy-bill-extractor/service"
	"github.com/dheryaagarwal/energy-bill-extractor/utils/energybill"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "billctl",
		Short:        "Extract billing fields from electricity bills",
		SilenceUsage: true,
	}

	root.AddCommand(newExtractCmd(), newExportCmd())
	return root
}

func newExtractCmd() *cobra.Command {
	var (
		templatePath string
		dbPath       string
		password     string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract the billing fields from bill PDFs or scans",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args, templatePath, dbPath, password, asJSON)
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "", "YAML template overriding the stock field rules")
	cmd.Flags().StringVar(&dbPath, "db", "", "record results in this history database")
	cmd.Flags().StringVar(&password, "password", "", "password for protected PDFs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}

func runExtract(ctx context.Context, files []string, templatePath, dbPath, password string, asJSON bool) error {
	cfg := config.LoadConfig()

	extractor := energybill.New()
	if templatePath == "" {
		templatePath = cfg.TemplatePath
	}
	if templatePath != "" {
		rules, err := energybill.LoadTemplate(templatePath)
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}
		extractor = energybill.NewExtractor(rules)
	}

	var history *repository.BillHistory
	if dbPath != "" {
		var err error
		history, err = repository.NewBillHistory(dbPath)
		if err != nil {
			return err
		}
		defer history.Close()
	}

	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()
	paddleClient := client.NewPaddleClient(cfg.PaddleAPIURL)

	billService := service.NewBillService(tesseractClient, paddleClient, service.NewPDFProcessor(), extractor, history)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	results := make([]*dto.BillExtractResponse, 0, len(files))

	for _, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			response := billService.ExtractFromBytes(ctx, filepath.Base(path), data, password, false)

			mu.Lock()
			results = append(results, response)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Filename < results[j].Filename })

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	for _, result := range results {
		printResult(result)
	}
	return nil
}

func printResult(result *dto.BillExtractResponse) {
	fmt.Printf("%s (%s)\n", result.Filename, result.OCR.Method)
	for _, key := range energybill.Keys() {
		fmt.Printf("  %-22s %s\n", key+":", result.Fields[key])
	}
	if result.PaymentQR != nil {
		fmt.Printf("  %-22s %s\n", "Payment UPI:", result.PaymentQR.PayeeAddress)
	}
	fmt.Println()
}

func newExportCmd() *cobra.Command {
	var dbPath, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export extraction history to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), dbPath, outPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "history database to export (defaults to HISTORY_DB_PATH)")
	cmd.Flags().StringVar(&outPath, "out", "bill-history.xlsx", "output file")

	return cmd
}

func runExport(ctx context.Context, dbPath, outPath string) error {
	if dbPath == "" {
		dbPath = config.LoadConfig().HistoryDBPath
	}

	history, err := repository.NewBillHistory(dbPath)
	if err != nil {
		return err
	}
	defer history.Close()

	data, err := service.NewExportService(history).ExportXLSX(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(data))
	return nil
}
