package core

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// logInternal records an unexpected failure server-side; the client only ever
// sees the generic 500 body.
func logInternal(op string, err error) {
	log.Printf("internal error (%s): %v", op, err)
}

// respondError sends the unified failure payload {"success": false, "message": ...}.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondSuccess sends {"success": true, "message": ..., "data": ...}; data is omitted when nil.
func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// parsePagination applies defaults (page=1, per_page=20, max 100).
func parsePagination(pageStr, perPageStr string) (int, int, error) {
	page, perPage := 1, 20
	if pageStr != "" {
		v, err := strconv.Atoi(pageStr)
		if err != nil || v <= 0 {
			return 0, 0, errors.New("invalid page")
		}
		page = v
	}
	if perPageStr != "" {
		v, err := strconv.Atoi(perPageStr)
		if err != nil || v <= 0 || v > 100 {
			return 0, 0, errors.New("invalid per_page")
		}
		perPage = v
	}
	return page, perPage, nil
}

func calcTotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
