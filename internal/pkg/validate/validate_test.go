package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
)

type sample struct {
	Title string `json:"title" validate:"required,max=10"`
	Kind  string `json:"kind" validate:"oneof=sale rental"`
	Price string `json:"price" validate:"required,positive_amount"`
}

func TestStruct(t *testing.T) {
	cases := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid", in: sample{Title: "Golf", Kind: "sale", Price: "100.50"}},
		{name: "missing title", in: sample{Kind: "sale", Price: "1"}, wantErr: "title is required"},
		{name: "bad kind", in: sample{Title: "Golf", Kind: "lease", Price: "1"}, wantErr: "kind must be one of"},
		{name: "zero price", in: sample{Title: "Golf", Kind: "rental", Price: "0"}, wantErr: "price must be a positive amount"},
		{name: "garbage price", in: sample{Title: "Golf", Kind: "rental", Price: "abc"}, wantErr: "price must be a positive amount"},
		{name: "long title", in: sample{Title: "Volkswagen Golf", Kind: "sale", Price: "1"}, wantErr: "title must be at most 10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("message %q does not mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}
