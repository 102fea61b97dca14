package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"lexai-backend/logger"
	"lexai-backend/storage"

	"github.com/gin-gonic/gin"
)

const defaultMaxDatasetSize = 2 << 30 // 2GB

// DatasetHandler uploads the JSONL dataset that ingestion runs read
type DatasetHandler struct {
	storage     storage.Storage
	datasetKey  string
	maxFileSize int64
}

// NewDatasetHandler creates a dataset handler writing to key in s
func NewDatasetHandler(s storage.Storage, key string) *DatasetHandler {
	return &DatasetHandler{
		storage:     s,
		datasetKey:  key,
		maxFileSize: defaultMaxDatasetSize,
	}
}

// UploadDataset handles PUT /api/dataset. The upload replaces the current dataset.
func (h *DatasetHandler) UploadDataset(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".jsonl" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Dataset must be a .jsonl file",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to open uploaded file",
			},
		})
		return
	}
	defer file.Close()

	if err := h.storage.Put(c.Request.Context(), h.datasetKey, file); err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to store dataset", "key", h.datasetKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store dataset",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"key":  h.datasetKey,
			"size": fileHeader.Size,
		},
	})
}
