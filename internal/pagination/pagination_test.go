package pagination

import "testing"

func TestWindowNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Window
		want Window
	}{
		{"zero_value", Window{}, Window{Limit: DefaultLimit}},
		{"negative_offset", Window{Offset: -3, Limit: 5}, Window{Limit: 5}},
		{"over_cap", Window{Offset: 10, Limit: MaxLimit + 1}, Window{Offset: 10, Limit: MaxLimit}},
		{"unchanged", Window{Offset: 40, Limit: 20}, Window{Offset: 40, Limit: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestPage(t *testing.T) {
	t.Run("nil_items_become_empty", func(t *testing.T) {
		p := NewPage[int](nil, First(10), 0)
		if p.Items == nil || p.Truncated() {
			t.Errorf("unexpected page %+v", p)
		}
	})

	t.Run("truncated_first_window", func(t *testing.T) {
		p := NewPage([]int{1, 2, 3}, First(3), 7)
		if !p.Truncated() {
			t.Error("expected truncated page")
		}
	})

	t.Run("last_window", func(t *testing.T) {
		p := NewPage([]int{7}, Window{Offset: 6, Limit: 3}, 7)
		if p.Truncated() {
			t.Error("last page must not be truncated")
		}
	})
}
