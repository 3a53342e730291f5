package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

func query() model.PriceQuery {
	return model.PriceQuery{
		Make:      "Toyota",
		Model:     "Corolla",
		Year:      2018,
		MileageKM: 90000,
		OfferType: enums.OfferSale,
		Price:     decimal.RequireFromString("12500.00"),
	}
}

func TestAdvisorAccepts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/price-check" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var got model.PriceQuery
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !got.Price.Equal(decimal.RequireFromString("12500")) {
			t.Errorf("unexpected price %s", got.Price)
		}
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer server.Close()

	advisor, err := New(server.URL, 0)
	if err != nil {
		t.Fatalf("new advisor: %v", err)
	}
	ok, err := advisor.Accept(context.Background(), query())
	if err != nil || !ok {
		t.Fatalf("expected accept, got %v %v", ok, err)
	}
}

func TestAdvisorRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"accepted":false,"reason":"price far below market"}`))
	}))
	defer server.Close()

	advisor, _ := New(server.URL, 0)
	ok, err := advisor.Accept(context.Background(), query())
	if err != nil || ok {
		t.Fatalf("expected rejection, got %v %v", ok, err)
	}
}

func TestAdvisorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	advisor, _ := New(server.URL, 0)
	if _, err := advisor.Accept(context.Background(), query()); err == nil {
		t.Fatalf("expected error")
	}
}
