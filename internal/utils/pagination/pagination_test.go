package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative", -3, -1, 1, 20},
		{"clamped size", 2, 500, 2, 100},
		{"valid", 4, 10, 4, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := Normalize(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, size)
		})
	}
}

func TestPagination_Info(t *testing.T) {
	p := &Pagination{Page: 2, PageSize: 10}

	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, PageInfo{Page: 2, PageSize: 10, Total: 25, TotalPages: 3}, p.Info(25))
	assert.Equal(t, 0, p.TotalPages(0))
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](New(), nil, 0)

	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Page)
}
