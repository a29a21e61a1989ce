package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dheryaagarwal/energy-bill-extractor/dto"
	"github.com/dheryaagarwal/energy-bill-extractor/repository"
	"github.com/dheryaagarwal/energy-bill-extractor/service"
)

type BillHandler struct {
	billService   *service.BillService
	exportService *service.ExportService
	maxFileSize   int64
}

func NewBillHandler(billService *service.BillService, exportService *service.ExportService, maxFileSize int64) *BillHandler {
	return &BillHandler{
		billService:   billService,
		exportService: exportService,
		maxFileSize:   maxFileSize,
	}
}

// Extract handles the POST /bills/extract endpoint
func (h *BillHandler) Extract(c *gin.Context) {
	log.Println("Received bill extraction request")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "A bill file is required", err)
		return
	}

	// Build request DTO
	request := &dto.BillExtractRequest{
		File:           fileHeader,
		Password:       c.PostForm("password"),
		IncludeRawText: c.PostForm("include_raw_text") == "true",
	}

	// Validate request
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if fileHeader.Size > h.maxFileSize {
		h.sendError(c, http.StatusRequestEntityTooLarge, dto.ErrFileTooLarge.Error(), dto.ErrFileTooLarge)
		return
	}

	// Call service layer
	response, err := h.billService.ExtractFromUpload(c.Request.Context(), request.File, request.Password, request.IncludeRawText)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to process bill", err)
		return
	}

	log.Printf("Extraction completed for %s", fileHeader.Filename)
	c.JSON(http.StatusOK, response)
}

// ExtractBatch handles the POST /bills/extract-batch endpoint
func (h *BillHandler) ExtractBatch(c *gin.Context) {
	log.Println("Received batch bill extraction request")

	// Parse multipart form
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	// Build request DTO
	request := &dto.BatchExtractRequest{
		Files:    form.File["files[]"],
		Password: c.PostForm("password"),
	}

	// Validate request
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	for _, file := range request.Files {
		if file.Size > h.maxFileSize {
			h.sendError(c, http.StatusRequestEntityTooLarge, file.Filename+": "+dto.ErrFileTooLarge.Error(), dto.ErrFileTooLarge)
			return
		}
	}

	log.Printf("Processing %d files", len(request.Files))

	// Call service layer
	response := h.billService.ExtractBatch(c.Request.Context(), request.Files, request.Password)

	log.Printf("Batch extraction completed: %d ok, %d failed", len(response.Results), len(response.Failures))
	c.JSON(http.StatusOK, response)
}

// History handles the GET /bills/history endpoint
func (h *BillHandler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.sendError(c, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = parsed
	}

	records, err := h.billService.History(c.Request.Context(), limit)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to load extraction history", err)
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{Records: records, Count: len(records)})
}

// HistoryRecord handles the GET /bills/history/:id endpoint
func (h *BillHandler) HistoryRecord(c *gin.Context) {
	record, err := h.billService.HistoryRecord(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrRecordNotFound) {
		h.sendError(c, http.StatusNotFound, "No such bill record", err)
		return
	}
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to load bill record", err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Export handles the GET /bills/export endpoint
func (h *BillHandler) Export(c *gin.Context) {
	data, err := h.exportService.ExportXLSX(c.Request.Context())
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to build export", err)
		return
	}

	filename := "bill-history-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// sendError sends a structured error response
func (h *BillHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
