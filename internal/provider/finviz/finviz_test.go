package finviz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

const samplePage = `
<html><body>
<table class="snapshot-table2">
<tr><td>P/E</td><td>20.5</td><td>Target Price</td><td>150.00</td></tr>
</table>
<table>
<tr><td>Jan-01-24</td><td>Upgrade</td><td>BigBank</td><td>Buy</td></tr>
</table>
</body></html>`

func TestFetchCompanyDataStoresTargetAndRatings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME"})
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if results[0].RecordsStored != 2 {
		t.Fatalf("expected target + rating signal stored (2), got %d", results[0].RecordsStored)
	}
}
