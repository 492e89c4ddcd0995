package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKey(t *testing.T) {
	tests := []struct {
		name  string
		a     string
		b     string
		equal bool
	}{
		{"parameter order", "page=2&region=North", "region=North&page=2", true},
		{"repeatable value order", "gender=Male&gender=Female", "gender=Female&gender=Male", true},
		{"different values", "page=1", "page=2", false},
		{"ordered param keeps value order", "sortBy=date&sortBy=age", "sortBy=age&sortBy=date", false},
		{"empty query", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qa, _ := url.ParseQuery(tt.a)
			qb, _ := url.ParseQuery(tt.b)
			ka := QueryKey(NamespaceTransactions, qa, "gender", "region", "tags")
			kb := QueryKey(NamespaceTransactions, qb, "gender", "region", "tags")
			if tt.equal {
				assert.Equal(t, ka, kb)
			} else {
				assert.NotEqual(t, ka, kb)
			}
		})
	}
}

func TestQueryKey_Format(t *testing.T) {
	q, _ := url.ParseQuery("region=West&page=1")
	assert.Equal(t, `transactions_{"page":["1"],"region":["West"]}`, QueryKey(NamespaceTransactions, q))
	assert.Equal(t, "transactions_{}", QueryKey(NamespaceTransactions, nil))
}

func TestQueryKey_DoesNotMutateInput(t *testing.T) {
	q := url.Values{"tags": {"b", "a"}}
	QueryKey(NamespaceTransactions, q, "tags")
	assert.Equal(t, []string{"b", "a"}, q["tags"])
}
