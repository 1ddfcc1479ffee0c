package utils

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Page is the payload of every paginated listing.
type Page struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// NewPage wraps items with pagination metadata.
func NewPage(items interface{}, page, pageSize int, total int64) Page {
	totalPages := int64(0)
	if pageSize > 0 {
		totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Page{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// ParsePagination reads "pages"/"size" (or "page"/"page_size") from the query string.
// Missing, unparsable or non-positive pages become 1; size defaults to 10 and is clamped to [1, 100].
func ParsePagination(ctx *gin.Context) (page, pageSize int) {
	return ClampPagination(firstQuery(ctx, "pages", "page"), firstQuery(ctx, "size", "page_size"))
}

// ClampPagination applies the pagination defaults to raw query values.
func ClampPagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := defaultPageSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil {
		switch {
		case s < 1:
			pageSize = 1
		case s > maxPageSize:
			pageSize = maxPageSize
		default:
			pageSize = s
		}
	}
	return page, pageSize
}

func firstQuery(ctx *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v, ok := ctx.GetQuery(k); ok {
			return v
		}
	}
	return ""
}
