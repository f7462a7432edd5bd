package domain_test

import (
	"testing"

	"capsule/internal/domain"
)

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name      string
		params    domain.PageParams
		wantLen   int
		wantFirst int
		wantPages int
		wantMore  bool
		wantPage  int
		wantLimit int
	}{
		{"defaults", domain.PageParams{}, 20, 0, 3, true, 1, 20},
		{"second page", domain.PageParams{Page: 2, Limit: 20}, 20, 20, 3, true, 2, 20},
		{"last partial page", domain.PageParams{Page: 3, Limit: 20}, 5, 40, 3, false, 3, 20},
		{"past the end", domain.PageParams{Page: 9, Limit: 20}, 0, -1, 3, false, 9, 20},
		{"negative values", domain.PageParams{Page: -1, Limit: -5}, 20, 0, 3, true, 1, 20},
		{"whole set", domain.PageParams{Page: 1, Limit: 100}, 45, 0, 1, false, 1, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page := domain.Paginate(items, tc.params)
			if len(page.Data) != tc.wantLen {
				t.Fatalf("len = %d; want %d", len(page.Data), tc.wantLen)
			}
			if tc.wantLen > 0 && page.Data[0] != tc.wantFirst {
				t.Errorf("first = %d; want %d", page.Data[0], tc.wantFirst)
			}
			p := page.Pagination
			if p.Total != 45 || p.TotalPages != tc.wantPages || p.HasMore != tc.wantMore {
				t.Errorf("pagination = %+v; want total 45, pages %d, more %v", p, tc.wantPages, tc.wantMore)
			}
			if p.Page != tc.wantPage || p.Limit != tc.wantLimit {
				t.Errorf("page/limit = %d/%d; want %d/%d", p.Page, p.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	page := domain.Paginate([]string(nil), domain.PageParams{})
	if page.Data == nil {
		t.Fatal("Data is nil; want empty slice")
	}
	if page.Pagination.Total != 0 || page.Pagination.TotalPages != 0 || page.Pagination.HasMore {
		t.Errorf("pagination = %+v", page.Pagination)
	}
}
