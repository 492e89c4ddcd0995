// Package query turns list-endpoint request parameters into a backend-neutral
// filter, sort and pagination specification that every store adapter executes.
package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"transaction-service/internal/models"
)

const (
	DefaultPage      = 1
	DefaultPerPage   = 10
	DefaultSortField = "date"
)

// Request parameter names
const (
	ParamSearch        = "search"
	ParamPage          = "page"
	ParamPerPage       = "perPage"
	ParamSortBy        = "sortBy"
	ParamSortOrder     = "sortOrder"
	ParamGender        = "gender"
	ParamRegion        = "region"
	ParamCategory      = "category"
	ParamPaymentMethod = "paymentMethod"
	ParamTags          = "tags"
	ParamMinPrice      = "minPrice"
	ParamMaxPrice      = "maxPrice"
	ParamStartDate     = "startDate"
	ParamEndDate       = "endDate"
)

// inFields are matched with "is one of"; order is the order clauses appear in a Filter.
var inFields = []string{ParamGender, ParamRegion, ParamCategory, ParamPaymentMethod}

// MultiValueParams may be repeated in a query string; their value order carries no meaning.
var MultiValueParams = []string{ParamGender, ParamRegion, ParamCategory, ParamPaymentMethod, ParamTags}

// SearchFields are matched by the free-text search term.
var SearchFields = []string{"customerName", "phoneNumber", "productName"}

// SortableFields lists the document fields a list may be ordered by: every
// scalar field of a record.
var SortableFields = map[string]bool{
	"customerId":      true,
	"customerName":    true,
	"phoneNumber":     true,
	"gender":          true,
	"age":             true,
	"region":          true,
	"customerType":    true,
	"productId":       true,
	"productName":     true,
	"brand":           true,
	"category":        true,
	"quantity":        true,
	"pricePerUnit":    true,
	"discountPercent": true,
	"totalAmount":     true,
	"currency":        true,
	"finalAmount":     true,
	"date":            true,
	"paymentMethod":   true,
	"orderStatus":     true,
	"deliveryType":    true,
	"storeId":         true,
	"storeLocation":   true,
	"salespersonId":   true,
	"employeeName":    true,
	"imageUrl":        true,
	"createdAt":       true,
	"updatedAt":       true,
}

// ParamError reports a request parameter that could not be interpreted
type ParamError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// InClause constrains Field to one of Values
type InClause struct {
	Field  string
	Values []string
}

// FloatRange is a range with optional inclusive bounds
type FloatRange struct {
	Min *float64
	Max *float64
}

// TimeRange is a range with optional inclusive bounds
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// Filter is the conjunction of every clause set on it. Search is itself a
// disjunction over SearchFields.
type Filter struct {
	Search      string
	In          []InClause
	Tags        []string
	TotalAmount *FloatRange
	Date        *TimeRange
}

// IsEmpty reports whether the filter matches every record
func (f Filter) IsEmpty() bool {
	return f.Search == "" && len(f.In) == 0 && len(f.Tags) == 0 && f.TotalAmount == nil && f.Date == nil
}

// Sort orders results by a single field
type Sort struct {
	Field string
	Desc  bool
}

// Spec is a fully translated list query
type Spec struct {
	Filter  Filter
	Sort    Sort
	Page    int
	PerPage int
	Skip    int64
	Limit   int64
}

// TotalPages returns ceil(total/perPage)
func (s Spec) TotalPages(total int64) int {
	if s.PerPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(s.PerPage)))
}

// Translate builds a Spec from request parameters such as url.Values.
// Absent or empty parameters are left out of the filter.
func Translate(params map[string][]string) (*Spec, error) {
	spec := &Spec{
		Sort: Sort{Field: DefaultSortField, Desc: true},
	}

	spec.Filter.Search = first(params, ParamSearch)

	for _, field := range inFields {
		if values := list(params, field); len(values) > 0 {
			spec.Filter.In = append(spec.Filter.In, InClause{Field: field, Values: values})
		}
	}
	spec.Filter.Tags = list(params, ParamTags)

	minPrice, err := parseAmount(params, ParamMinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, err := parseAmount(params, ParamMaxPrice)
	if err != nil {
		return nil, err
	}
	if minPrice != nil || maxPrice != nil {
		spec.Filter.TotalAmount = &FloatRange{Min: minPrice, Max: maxPrice}
	}

	from, err := parseDate(params, ParamStartDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(params, ParamEndDate)
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		spec.Filter.Date = &TimeRange{From: from, To: to}
	}

	if spec.Page, err = parsePositive(params, ParamPage, DefaultPage); err != nil {
		return nil, err
	}
	if spec.PerPage, err = parsePositive(params, ParamPerPage, DefaultPerPage); err != nil {
		return nil, err
	}
	if int64(spec.Page-1) > math.MaxInt64/int64(spec.PerPage) {
		return nil, &ParamError{Param: ParamPage, Value: first(params, ParamPage), Reason: "page offset out of range"}
	}
	spec.Skip = int64(spec.Page-1) * int64(spec.PerPage)
	spec.Limit = int64(spec.PerPage)

	if sortBy := first(params, ParamSortBy); sortBy != "" {
		if !SortableFields[sortBy] {
			return nil, &ParamError{Param: ParamSortBy, Value: sortBy, Reason: "not a sortable field"}
		}
		spec.Sort.Field = sortBy
	}
	spec.Sort.Desc = first(params, ParamSortOrder) != "asc"

	return spec, nil
}

func first(params map[string][]string, key string) string {
	for _, v := range params[key] {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func list(params map[string][]string, key string) []string {
	var out []string
	for _, v := range params[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseAmount(params map[string][]string, key string) (*float64, error) {
	raw := first(params, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &ParamError{Param: key, Value: raw, Reason: "must be a number"}
	}
	if v < 0 {
		return nil, &ParamError{Param: key, Value: raw, Reason: "must not be negative"}
	}
	return &v, nil
}

func parseDate(params map[string][]string, key string) (*time.Time, error) {
	raw := first(params, key)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, &ParamError{Param: key, Value: raw, Reason: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
	}
	return &t, nil
}

func parsePositive(params map[string][]string, key string, def int) (int, error) {
	raw := first(params, key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParamError{Param: key, Value: raw, Reason: "must be an integer"}
	}
	if v < 1 {
		return 0, &ParamError{Param: key, Value: raw, Reason: "must be at least 1"}
	}
	return v, nil
}
