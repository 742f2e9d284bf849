package persistence

import (
	"strings"

	"github.com/assetflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"role":          true,
	"last_login_at": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"category":   true,
	"quantity":   true,
	"unit_cost":  true,
}

// RequestSortFields contains allowed sort fields for product requests
var RequestSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"quantity":     true,
	"return_date":  true,
	"processed_at": true,
}

// AssignmentSortFields contains allowed sort fields for assignments
var AssignmentSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"assigned_at": true,
	"due_date":    true,
	"returned_at": true,
	"quantity":    true,
}

// CommonSortFields contains fields common to most tables
var CommonSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
}

// paginate applies whitelisted ordering, qualified by table, plus offset and limit
func paginate(query *gorm.DB, table string, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(table + "." + field + " " + dir).Offset(filter.Offset()).Limit(filter.Limit())
}
