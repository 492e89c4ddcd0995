package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDefaults(t *testing.T) {
	spec, err := Translate(url.Values{})
	require.NoError(t, err)

	assert.True(t, spec.Filter.IsEmpty())
	assert.Equal(t, Sort{Field: "date", Desc: true}, spec.Sort)
	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, 10, spec.PerPage)
	assert.Equal(t, int64(0), spec.Skip)
	assert.Equal(t, int64(10), spec.Limit)
}

func TestTranslatePagination(t *testing.T) {
	spec, err := Translate(url.Values{"page": {"3"}, "perPage": {"10"}})
	require.NoError(t, err)

	assert.Equal(t, int64(20), spec.Skip)
	assert.Equal(t, int64(10), spec.Limit)
	assert.Equal(t, 3, spec.TotalPages(23))
	assert.Equal(t, 0, spec.TotalPages(0))
	assert.Equal(t, 1, spec.TotalPages(10))
}

func TestTranslateSearch(t *testing.T) {
	spec, err := Translate(url.Values{"search": {"  asha "}})
	require.NoError(t, err)

	assert.Equal(t, "asha", spec.Filter.Search)
	assert.False(t, spec.Filter.IsEmpty())
}

func TestTranslateMultiValueFilters(t *testing.T) {
	params := url.Values{
		"gender":        {"Male", "Female"},
		"region":        {"North"},
		"category":      {""},
		"paymentMethod": {"UPI", ""},
		"tags":          {"organic", "sale"},
	}

	spec, err := Translate(params)
	require.NoError(t, err)

	assert.Equal(t, []InClause{
		{Field: "gender", Values: []string{"Male", "Female"}},
		{Field: "region", Values: []string{"North"}},
		{Field: "paymentMethod", Values: []string{"UPI"}},
	}, spec.Filter.In)
	assert.Equal(t, []string{"organic", "sale"}, spec.Filter.Tags)
}

func TestTranslatePriceRange(t *testing.T) {
	tests := []struct {
		name    string
		params  url.Values
		wantMin *float64
		wantMax *float64
	}{
		{name: "min only", params: url.Values{"minPrice": {"100"}}, wantMin: ptr(100.0)},
		{name: "max only", params: url.Values{"maxPrice": {"250.5"}}, wantMax: ptr(250.5)},
		{name: "both", params: url.Values{"minPrice": {"10"}, "maxPrice": {"20"}}, wantMin: ptr(10.0), wantMax: ptr(20.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Translate(tt.params)
			require.NoError(t, err)
			require.NotNil(t, spec.Filter.TotalAmount)
			assert.Equal(t, tt.wantMin, spec.Filter.TotalAmount.Min)
			assert.Equal(t, tt.wantMax, spec.Filter.TotalAmount.Max)
		})
	}

	spec, err := Translate(url.Values{"minPrice": {""}})
	require.NoError(t, err)
	assert.Nil(t, spec.Filter.TotalAmount)
}

func TestTranslateDateRange(t *testing.T) {
	spec, err := Translate(url.Values{"startDate": {"2023-01-01"}, "endDate": {"2023-01-31"}})
	require.NoError(t, err)
	require.NotNil(t, spec.Filter.Date)

	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), *spec.Filter.Date.From)
	assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), *spec.Filter.Date.To)

	spec, err = Translate(url.Values{"endDate": {"2023-01-31"}})
	require.NoError(t, err)
	assert.Nil(t, spec.Filter.Date.From)
	assert.NotNil(t, spec.Filter.Date.To)
}

func TestTranslateSort(t *testing.T) {
	spec, err := Translate(url.Values{"sortBy": {"totalAmount"}, "sortOrder": {"asc"}})
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "totalAmount", Desc: false}, spec.Sort)

	spec, err = Translate(url.Values{"sortBy": {"customerName"}, "sortOrder": {"sideways"}})
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: "customerName", Desc: true}, spec.Sort)
}

func TestTranslateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value string
	}{
		{name: "non-numeric page", param: "page", value: "two"},
		{name: "zero page", param: "page", value: "0"},
		{name: "negative perPage", param: "perPage", value: "-5"},
		{name: "non-numeric minPrice", param: "minPrice", value: "cheap"},
		{name: "NaN maxPrice", param: "maxPrice", value: "NaN"},
		{name: "negative minPrice", param: "minPrice", value: "-1"},
		{name: "bad startDate", param: "startDate", value: "01/02/2023"},
		{name: "unknown sortBy", param: "sortBy", value: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(url.Values{tt.param: {tt.value}})
			require.Error(t, err)

			var perr *ParamError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.param, perr.Param)
		})
	}
}

func TestTranslateRejectsOffsetOverflow(t *testing.T) {
	_, err := Translate(url.Values{"page": {"92233720368547760"}, "perPage": {"100"}})
	require.Error(t, err)

	var perr *ParamError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "page", perr.Param)

	spec, err := Translate(url.Values{"page": {"92233720368547758"}, "perPage": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(92233720368547757), spec.Skip)
}

func TestTranslateLargePerPage(t *testing.T) {
	spec, err := Translate(url.Values{"page": {"2"}, "perPage": {"500"}})
	require.NoError(t, err)

	assert.Equal(t, 500, spec.PerPage)
	assert.Equal(t, int64(500), spec.Skip)
	assert.Equal(t, int64(500), spec.Limit)
}

func TestTranslateSortableFields(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{name: "string field", field: "paymentMethod"},
		{name: "identifier", field: "customerId"},
		{name: "integer field", field: "age"},
		{name: "float field", field: "finalAmount"},
		{name: "timestamp", field: "updatedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Translate(url.Values{"sortBy": {tt.field}, "sortOrder": {"asc"}})
			require.NoError(t, err)
			assert.Equal(t, Sort{Field: tt.field}, spec.Sort)
		})
	}

	_, err := Translate(url.Values{"sortBy": {"tags"}})
	require.Error(t, err)
}

func ptr(f float64) *float64 { return &f }
