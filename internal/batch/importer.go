package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"transaction-service/internal/models"
	"transaction-service/internal/store"
	"transaction-service/internal/util"

	"go.uber.org/zap"
)

// ImportResult summarizes an import run
type ImportResult struct {
	Cleared int64 `json:"cleared"`
	Rows    int   `json:"rows"`
	Batches int   `json:"batches"`
	Skipped int   `json:"skipped"`
}

// Importer replaces the whole collection with the rows of a CSV file
type Importer struct {
	store     store.Store
	publisher EventPublisher
	batchSize int
	source    string
	now       func() time.Time
	logger    *zap.Logger
}

// NewImporter creates a new importer. A batchSize <= 0 selects DefaultBatchSize;
// publisher may be nil.
func NewImporter(s store.Store, publisher EventPublisher, batchSize int, source string) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		store:     s,
		publisher: publisher,
		batchSize: batchSize,
		source:    source,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// Run clears the collection and loads every row from r. It is destructive:
// existing records are removed before the first row is read. A failing batch
// aborts the run; rows inserted by earlier batches stay.
func (im *Importer) Run(ctx context.Context, r io.Reader) (*ImportResult, error) {
	ctx, span := util.StartSpan(ctx, "Importer.Run")
	defer span.End()

	result := &ImportResult{}

	im.logger.Info("Clearing existing transactions")
	cleared, err := im.store.DeleteAll(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to clear collection: %w", err)
	}
	result.Cleared = cleared

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		im.logger.Info("Input is empty, nothing to import")
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read header: %w", err)
	}
	cols := newColumnIndex(header)

	batch := make([]models.Transaction, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.store.InsertMany(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d: %w", result.Batches+1, err)
		}
		result.Rows += n
		result.Batches++
		util.ImportRowsTotal.Add(float64(n))
		im.logger.Info("Inserted batch", zap.Int("batch", result.Batches), zap.Int("total_rows", result.Rows))
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.Skipped++
			im.logger.Warn("Skipping unparsable row", zap.Int("line", line), zap.Error(err))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to read input: %w", err)
		}

		batch = append(batch, mapRow(cols.row(record), im.now))
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	im.logger.Info("Import finished",
		zap.Int("rows", result.Rows),
		zap.Int("batches", result.Batches),
		zap.Int("skipped", result.Skipped))

	publish(ctx, im.publisher, im.logger,
		models.NewTransactionEvent(models.EventTypeTransactionsImported, im.source, "", int64(result.Rows)))
	return result, nil
}

// columnIndex resolves header names to positions
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// csvRow looks up values by header name
type csvRow struct {
	cols   columnIndex
	record []string
}

func (c columnIndex) row(record []string) csvRow {
	return csvRow{cols: c, record: record}
}

// get returns the first non-empty value among the given column names.
// Missing columns and short rows read as empty.
func (r csvRow) get(names ...string) string {
	for _, name := range names {
		i, ok := r.cols[name]
		if !ok || i >= len(r.record) {
			continue
		}
		if v := strings.TrimSpace(r.record[i]); v != "" {
			return v
		}
	}
	return ""
}

// mapRow converts one CSV row. Headers appear either space or underscore
// separated depending on the export; both spellings are accepted.
func mapRow(r csvRow, now func() time.Time) models.Transaction {
	t := models.Transaction{
		CustomerID:   r.get("Customer ID", "Customer_ID"),
		CustomerName: r.get("Customer Name", "Customer_Name"),
		PhoneNumber:  r.get("Phone Number", "Phone_Number"),
		Gender:       r.get("Gender"),
		Age:          int(parseNumber(r.get("Age"))),
		Region:       r.get("Customer Region", "Customer_Region"),
		CustomerType: r.get("Customer Type", "Customer_Type"),

		ProductID:   r.get("Product ID", "Product_ID"),
		ProductName: r.get("Product Name", "Product_Name"),
		Brand:       r.get("Brand"),
		Category:    r.get("Product Category", "Product_Category"),
		Tags:        splitTags(r.get("Tags")),

		Quantity:        int(parseNumber(r.get("Quantity"))),
		PricePerUnit:    parseNumber(r.get("Price per Unit", "Price_per_Unit")),
		DiscountPercent: parseNumber(r.get("Discount Percentage", "Discount_Percentage")),
		TotalAmount:     parseNumber(r.get("Total Amount", "Total_Amount")),
		Currency:        r.get("Currency"),
		FinalAmount:     parseNumber(r.get("Final Amount", "Final_Amount")),

		Date:          parseDate(r.get("Date"), now),
		PaymentMethod: r.get("Payment Method", "Payment_Method"),
		OrderStatus:   r.get("Order Status", "Order_Status"),
		DeliveryType:  r.get("Delivery Type", "Delivery_Type"),
		StoreID:       r.get("Store ID", "Store_ID"),
		StoreLocation: r.get("Store Location", "Store_Location"),
		SalespersonID: r.get("Salesperson ID", "Salesperson_ID"),
		EmployeeName:  r.get("Employee Name", "Employee_Name"),
	}
	t.Normalize()
	return t
}

// parseNumber returns 0 for empty or non-numeric input
func parseNumber(v string) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseDate returns now for empty or unparsable input
func parseDate(v string, now func() time.Time) time.Time {
	if v != "" {
		if t, err := models.ParseDate(v); err == nil {
			return t
		}
	}
	return now().UTC()
}

func splitTags(v string) []string {
	if v == "" {
		return []string{}
	}
	return models.CleanTags(strings.Split(v, ","))
}

func publish(ctx context.Context, publisher EventPublisher, logger *zap.Logger, event *models.TransactionEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish change event", zap.String("event_type", event.EventType), zap.Error(err))
	}
}
