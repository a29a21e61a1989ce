package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/dheryaagarwal/energy-bill-extractor/client"
	"github.com/dheryaagarwal/energy-bill-extractor/config"
	"github.com/dheryaagarwal/energy-bill-extractor/handler"
	"github.com/dheryaagarwal/energy-bill-extractor/repository"
	"github.com/dheryaagarwal/energy-bill-extractor/service"
	"github.com/dheryaagarwal/energy-bill-extractor/utils/energybill"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize OCR clients
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()

	paddleClient := client.NewPaddleClient(cfg.PaddleAPIURL)

	// Initialize PDF processor
	pdfProcessor := service.NewPDFProcessor()

	// Field rules: stock set, or a YAML template when configured
	extractor := energybill.New()
	if cfg.TemplatePath != "" {
		rules, err := energybill.LoadTemplate(cfg.TemplatePath)
		if err != nil {
			log.Fatalf("Failed to load bill template %s: %v", cfg.TemplatePath, err)
		}
		extractor = energybill.NewExtractor(rules)
		log.Printf("Loaded bill template from %s", cfg.TemplatePath)
	}

	// Initialize extraction history store
	history, err := repository.NewBillHistory(cfg.HistoryDBPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer history.Close()

	// Initialize service layer
	billService := service.NewBillService(tesseractClient, paddleClient, pdfProcessor, extractor, history)
	exportService := service.NewExportService(history)

	// Initialize handler layer
	billHandler := handler.NewBillHandler(billService, exportService, cfg.MaxFileSize)

	// Setup Gin router
	router := gin.Default()

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Energy Bill Extractor",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		bills := api.Group("/bills")
		{
			bills.POST("/extract", billHandler.Extract)
			bills.POST("/extract-batch", billHandler.ExtractBatch)
			bills.GET("/history", billHandler.History)
			bills.GET("/history/:id", billHandler.HistoryRecord)
			bills.GET("/export", billHandler.Export)
		}
	}

	// Start server
	log.Printf("Starting Energy Bill Extractor on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
