package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"transaction-service/internal/query"

	"github.com/lib/pq"
)

// columns maps document field names to table columns
var columns = map[string]string{
	"customerId":      "customer_id",
	"customerName":    "customer_name",
	"phoneNumber":     "phone_number",
	"gender":          "gender",
	"age":             "age",
	"region":          "region",
	"customerType":    "customer_type",
	"productId":       "product_id",
	"productName":     "product_name",
	"brand":           "brand",
	"category":        "category",
	"tags":            "tags",
	"quantity":        "quantity",
	"pricePerUnit":    "price_per_unit",
	"discountPercent": "discount_percent",
	"totalAmount":     "total_amount",
	"currency":        "currency",
	"finalAmount":     "final_amount",
	"date":            "date",
	"paymentMethod":   "payment_method",
	"orderStatus":     "order_status",
	"deliveryType":    "delivery_type",
	"storeId":         "store_id",
	"storeLocation":   "store_location",
	"salespersonId":   "salesperson_id",
	"employeeName":    "employee_name",
	"imageUrl":        "image_url",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id               TEXT PRIMARY KEY,
		customer_id      TEXT NOT NULL,
		customer_name    TEXT NOT NULL,
		phone_number     TEXT NOT NULL,
		gender           TEXT NOT NULL DEFAULT '',
		age              INTEGER NOT NULL DEFAULT 0,
		region           TEXT NOT NULL DEFAULT '',
		customer_type    TEXT NOT NULL DEFAULT '',
		product_id       TEXT NOT NULL,
		product_name     TEXT NOT NULL,
		brand            TEXT NOT NULL DEFAULT '',
		category         TEXT NOT NULL DEFAULT '',
		tags             TEXT[] NOT NULL DEFAULT '{}',
		quantity         INTEGER NOT NULL,
		price_per_unit   DOUBLE PRECISION NOT NULL DEFAULT 0,
		discount_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency         TEXT NOT NULL DEFAULT 'INR',
		final_amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
		date             TIMESTAMPTZ NOT NULL,
		payment_method   TEXT NOT NULL DEFAULT '',
		order_status     TEXT NOT NULL DEFAULT '',
		delivery_type    TEXT NOT NULL DEFAULT '',
		store_id         TEXT NOT NULL DEFAULT '',
		store_location   TEXT NOT NULL DEFAULT '',
		salesperson_id   TEXT NOT NULL DEFAULT '',
		employee_name    TEXT NOT NULL DEFAULT '',
		image_url        TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_customer_name ON transactions (customer_name)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_phone_number ON transactions (phone_number)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_gender ON transactions (gender)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_region ON transactions (region)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_product_name ON transactions (product_name)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions (category)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_total_amount ON transactions (total_amount)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_payment_method ON transactions (payment_method)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_tags ON transactions USING GIN (tags)`,
}

const insertSQL = `
	INSERT INTO transactions (
		id, customer_id, customer_name, phone_number, gender, age, region, customer_type,
		product_id, product_name, brand, category, tags,
		quantity, price_per_unit, discount_percent, total_amount, currency, final_amount,
		date, payment_method, order_status, delivery_type, store_id, store_location,
		salesperson_id, employee_name, image_url, created_at, updated_at
	) VALUES (
		:id, :customer_id, :customer_name, :phone_number, :gender, :age, :region, :customer_type,
		:product_id, :product_name, :brand, :category, :tags,
		:quantity, :price_per_unit, :discount_percent, :total_amount, :currency, :final_amount,
		:date, :payment_method, :order_status, :delivery_type, :store_id, :store_location,
		:salesperson_id, :employee_name, :image_url, :created_at, :updated_at
	)`

// buildWhere renders a filter as a WHERE clause with positional parameters.
// It returns an empty clause for an empty filter.
func buildWhere(f query.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := next("%" + escapeLike(f.Search) + "%")
		parts := make([]string, len(query.SearchFields))
		for i, field := range query.SearchFields {
			parts[i] = fmt.Sprintf("%s ILIKE %s", columns[field], p)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}

	for _, clause := range f.In {
		conds = append(conds, fmt.Sprintf("%s = ANY(%s)", columns[clause.Field], next(pq.Array(clause.Values))))
	}

	if len(f.Tags) > 0 {
		conds = append(conds, fmt.Sprintf("tags && %s::text[]", next(pq.Array(f.Tags))))
	}

	if r := f.TotalAmount; r != nil {
		if r.Min != nil {
			conds = append(conds, "total_amount >= "+next(*r.Min))
		}
		if r.Max != nil {
			conds = append(conds, "total_amount <= "+next(*r.Max))
		}
	}

	if r := f.Date; r != nil {
		if r.From != nil {
			conds = append(conds, "date >= "+next(*r.From))
		}
		if r.To != nil {
			conds = append(conds, "date <= "+next(*r.To))
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(s query.Sort) string {
	col, ok := columns[s.Field]
	if !ok {
		col = columns[query.DefaultSortField]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

// buildUpdate renders an UPDATE ... RETURNING statement for the given changes.
// Columns are emitted in a stable order.
func buildUpdate(id string, changes map[string]any, updatedAt time.Time) (string, []any) {
	names := make([]string, 0, len(changes))
	for name := range changes {
		if _, ok := columns[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+2)
	for _, name := range names {
		v := changes[name]
		if tags, ok := v.([]string); ok {
			v = pq.Array(tags)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", columns[name], len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	return fmt.Sprintf("UPDATE transactions SET %s WHERE id = $%d RETURNING *",
		strings.Join(sets, ", "), len(args)), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
