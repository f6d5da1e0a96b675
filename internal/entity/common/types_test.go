package common

import "testing"

func TestBaseParamsNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         BaseParams
		wantPage   int64
		wantSize   int64
		wantOffset int
	}{
		{name: "zero values", in: BaseParams{}, wantPage: 1, wantSize: 20, wantOffset: 0},
		{name: "clamped size", in: BaseParams{Page: 2, PageSize: 500}, wantPage: 2, wantSize: 100, wantOffset: 100},
		{name: "third page", in: BaseParams{Page: 3, PageSize: 10}, wantPage: 3, wantSize: 10, wantOffset: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize(20, 100)
			if p.Page != tt.wantPage || p.PageSize != tt.wantSize {
				t.Fatalf("expected %d/%d, got %d/%d", tt.wantPage, tt.wantSize, p.Page, p.PageSize)
			}
			if p.Offset() != tt.wantOffset {
				t.Fatalf("expected offset %d, got %d", tt.wantOffset, p.Offset())
			}
		})
	}
}
