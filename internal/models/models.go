package models

import (
	"strings"
	"time"
)

// DefaultCurrency is applied when a record carries no currency
const DefaultCurrency = "INR"

// Transaction represents a single retail sale record
type Transaction struct {
	ID string `json:"_id" bson:"_id,omitempty" db:"id"`

	// Customer
	CustomerID   string `json:"customerId" bson:"customerId" db:"customer_id"`
	CustomerName string `json:"customerName" bson:"customerName" db:"customer_name"`
	PhoneNumber  string `json:"phoneNumber" bson:"phoneNumber" db:"phone_number"`
	Gender       string `json:"gender" bson:"gender" db:"gender"`
	Age          int    `json:"age" bson:"age" db:"age"`
	Region       string `json:"region" bson:"region" db:"region"`
	CustomerType string `json:"customerType" bson:"customerType" db:"customer_type"`

	// Product
	ProductID   string   `json:"productId" bson:"productId" db:"product_id"`
	ProductName string   `json:"productName" bson:"productName" db:"product_name"`
	Brand       string   `json:"brand" bson:"brand" db:"brand"`
	Category    string   `json:"category" bson:"category" db:"category"`
	Tags        []string `json:"tags" bson:"tags" db:"-"`

	// Sales
	Quantity        int     `json:"quantity" bson:"quantity" db:"quantity"`
	PricePerUnit    float64 `json:"pricePerUnit" bson:"pricePerUnit" db:"price_per_unit"`
	DiscountPercent float64 `json:"discountPercent" bson:"discountPercent" db:"discount_percent"`
	TotalAmount     float64 `json:"totalAmount" bson:"totalAmount" db:"total_amount"`
	Currency        string  `json:"currency" bson:"currency" db:"currency"`
	FinalAmount     float64 `json:"finalAmount" bson:"finalAmount" db:"final_amount"`

	// Operational
	Date          time.Time `json:"date" bson:"date" db:"date"`
	PaymentMethod string    `json:"paymentMethod" bson:"paymentMethod" db:"payment_method"`
	OrderStatus   string    `json:"orderStatus" bson:"orderStatus" db:"order_status"`
	DeliveryType  string    `json:"deliveryType" bson:"deliveryType" db:"delivery_type"`
	StoreID       string    `json:"storeId" bson:"storeId" db:"store_id"`
	StoreLocation string    `json:"storeLocation" bson:"storeLocation" db:"store_location"`
	SalespersonID string    `json:"salespersonId" bson:"salespersonId" db:"salesperson_id"`
	EmployeeName  string    `json:"employeeName" bson:"employeeName" db:"employee_name"`
	ImageURL      string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty" db:"image_url"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" db:"updated_at"`
}

// Normalize applies the ingestion defaults every stored record must satisfy
func (t *Transaction) Normalize() {
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	t.Tags = CleanTags(t.Tags)
}

// CleanTags trims every tag, drops empty ones and never returns nil
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Stats holds collection-wide aggregate totals
type Stats struct {
	TotalUnits    int64   `json:"totalUnits" bson:"totalUnits"`
	TotalAmount   float64 `json:"totalAmount" bson:"totalAmount"`
	TotalDiscount float64 `json:"totalDiscount" bson:"totalDiscount"`
}

// FilterOptions lists the values the UI offers in its filter dropdowns
type FilterOptions struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
}

// PageMeta describes one page of a list result
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}

// ListResult is the payload of the list endpoint
type ListResult struct {
	Data []Transaction `json:"data"`
	Meta PageMeta      `json:"meta"`
}
