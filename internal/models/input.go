package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidationError reports which fields of a request body were rejected
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, fieldErr := range fieldErrs {
			fields[name] = fieldErr.Error()
		}
		return &ValidationError{Fields: fields}
	}
	return err
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps and bare calendar dates (midnight UTC)
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

var validDate = validation.By(func(value interface{}) error {
	s, _ := value.(*string)
	if s == nil || *s == "" {
		return nil
	}
	if _, err := ParseDate(*s); err != nil {
		return errors.New("must be a valid date")
	}
	return nil
})

// TransactionInput is the body accepted when creating a transaction
type TransactionInput struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
	Gender       string `json:"gender"`
	Age          int    `json:"age"`
	Region       string `json:"region"`
	CustomerType string `json:"customerType"`

	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`

	Quantity        *int    `json:"quantity"`
	PricePerUnit    float64 `json:"pricePerUnit"`
	DiscountPercent float64 `json:"discountPercent"`
	TotalAmount     float64 `json:"totalAmount"`
	Currency        string  `json:"currency"`
	FinalAmount     float64 `json:"finalAmount"`

	Date          *string `json:"date"`
	PaymentMethod string  `json:"paymentMethod"`
	OrderStatus   string  `json:"orderStatus"`
	DeliveryType  string  `json:"deliveryType"`
	StoreID       string  `json:"storeId"`
	StoreLocation string  `json:"storeLocation"`
	SalespersonID string  `json:"salespersonId"`
	EmployeeName  string  `json:"employeeName"`
	ImageURL      string  `json:"imageUrl"`
}

// Validate checks the fields a transaction cannot be created without
func (in TransactionInput) Validate() error {
	return toValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.CustomerID, validation.Required),
		validation.Field(&in.CustomerName, validation.Required),
		validation.Field(&in.PhoneNumber, validation.Required),
		validation.Field(&in.ProductID, validation.Required),
		validation.Field(&in.ProductName, validation.Required),
		validation.Field(&in.Quantity, validation.NotNil),
		validation.Field(&in.Date, validation.Required, validDate),
	))
}

// ToTransaction validates the input and converts it into a normalized record
func (in TransactionInput) ToTransaction() (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	date, err := ParseDate(*in.Date)
	if err != nil {
		return nil, NewValidationError("date", "must be a valid date")
	}

	t := &Transaction{
		CustomerID:      in.CustomerID,
		CustomerName:    in.CustomerName,
		PhoneNumber:     in.PhoneNumber,
		Gender:          in.Gender,
		Age:             in.Age,
		Region:          in.Region,
		CustomerType:    in.CustomerType,
		ProductID:       in.ProductID,
		ProductName:     in.ProductName,
		Brand:           in.Brand,
		Category:        in.Category,
		Tags:            in.Tags,
		Quantity:        *in.Quantity,
		PricePerUnit:    in.PricePerUnit,
		DiscountPercent: in.DiscountPercent,
		TotalAmount:     in.TotalAmount,
		Currency:        in.Currency,
		FinalAmount:     in.FinalAmount,
		Date:            date,
		PaymentMethod:   in.PaymentMethod,
		OrderStatus:     in.OrderStatus,
		DeliveryType:    in.DeliveryType,
		StoreID:         in.StoreID,
		StoreLocation:   in.StoreLocation,
		SalespersonID:   in.SalespersonID,
		EmployeeName:    in.EmployeeName,
		ImageURL:        in.ImageURL,
	}
	t.Normalize()
	return t, nil
}

// TransactionPatch is the allow-list of fields an update may change.
// Identifiers and timestamps are deliberately absent; unknown JSON keys are dropped on decode.
type TransactionPatch struct {
	CustomerID   *string `json:"customerId"`
	CustomerName *string `json:"customerName"`
	PhoneNumber  *string `json:"phoneNumber"`
	Gender       *string `json:"gender"`
	Age          *int    `json:"age"`
	Region       *string `json:"region"`
	CustomerType *string `json:"customerType"`

	ProductID   *string   `json:"productId"`
	ProductName *string   `json:"productName"`
	Brand       *string   `json:"brand"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`

	Quantity        *int     `json:"quantity"`
	PricePerUnit    *float64 `json:"pricePerUnit"`
	DiscountPercent *float64 `json:"discountPercent"`
	TotalAmount     *float64 `json:"totalAmount"`
	Currency        *string  `json:"currency"`
	FinalAmount     *float64 `json:"finalAmount"`

	Date          *string `json:"date"`
	PaymentMethod *string `json:"paymentMethod"`
	OrderStatus   *string `json:"orderStatus"`
	DeliveryType  *string `json:"deliveryType"`
	StoreID       *string `json:"storeId"`
	StoreLocation *string `json:"storeLocation"`
	SalespersonID *string `json:"salespersonId"`
	EmployeeName  *string `json:"employeeName"`
	ImageURL      *string `json:"imageUrl"`
}

// Validate rejects patches that would blank a mandatory field
func (p TransactionPatch) Validate() error {
	return toValidationError(validation.ValidateStruct(&p,
		validation.Field(&p.CustomerID, validation.NilOrNotEmpty),
		validation.Field(&p.CustomerName, validation.NilOrNotEmpty),
		validation.Field(&p.PhoneNumber, validation.NilOrNotEmpty),
		validation.Field(&p.ProductID, validation.NilOrNotEmpty),
		validation.Field(&p.ProductName, validation.NilOrNotEmpty),
		validation.Field(&p.Currency, validation.NilOrNotEmpty),
		validation.Field(&p.Date, validation.NilOrNotEmpty, validDate),
	))
}

// Changes returns the fields set on the patch keyed by their document name
func (p TransactionPatch) Changes() (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	put(changes, "customerId", p.CustomerID)
	put(changes, "customerName", p.CustomerName)
	put(changes, "phoneNumber", p.PhoneNumber)
	put(changes, "gender", p.Gender)
	put(changes, "age", p.Age)
	put(changes, "region", p.Region)
	put(changes, "customerType", p.CustomerType)
	put(changes, "productId", p.ProductID)
	put(changes, "productName", p.ProductName)
	put(changes, "brand", p.Brand)
	put(changes, "category", p.Category)
	put(changes, "quantity", p.Quantity)
	put(changes, "pricePerUnit", p.PricePerUnit)
	put(changes, "discountPercent", p.DiscountPercent)
	put(changes, "totalAmount", p.TotalAmount)
	put(changes, "currency", p.Currency)
	put(changes, "finalAmount", p.FinalAmount)
	put(changes, "paymentMethod", p.PaymentMethod)
	put(changes, "orderStatus", p.OrderStatus)
	put(changes, "deliveryType", p.DeliveryType)
	put(changes, "storeId", p.StoreID)
	put(changes, "storeLocation", p.StoreLocation)
	put(changes, "salespersonId", p.SalespersonID)
	put(changes, "employeeName", p.EmployeeName)
	put(changes, "imageUrl", p.ImageURL)

	if p.Tags != nil {
		changes["tags"] = CleanTags(*p.Tags)
	}
	if p.Date != nil {
		date, err := ParseDate(*p.Date)
		if err != nil {
			return nil, NewValidationError("date", "must be a valid date")
		}
		changes["date"] = date
	}
	return changes, nil
}

// Apply copies the patched fields onto t
func (p TransactionPatch) Apply(t *Transaction) error {
	changes, err := p.Changes()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	return json.Unmarshal(raw, t)
}

func put[T any](changes map[string]any, name string, value *T) {
	if value != nil {
		changes[name] = *value
	}
}
