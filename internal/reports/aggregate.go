package reports

import (
	"sort"
	"time"
)

// DefaultLowStockThreshold applies to ingredients that have no threshold of
// their own.
const DefaultLowStockThreshold = 10

// Summary is a revenue total over a period.
type Summary struct {
	Total        float64 `json:"total"`
	Transactions int64   `json:"transactions"`
	Average      float64 `json:"average"`
}

// Summarize totals a list of sale amounts.
func Summarize(amounts []float64) Summary {
	var s Summary
	for _, a := range amounts {
		s.Total += a
	}
	s.Transactions = int64(len(amounts))
	if s.Transactions > 0 {
		s.Average = s.Total / float64(s.Transactions)
	}
	return s
}

// SalePoint is one sale reduced to what the charts need.
type SalePoint struct {
	SaleTime    time.Time
	TotalAmount float64
}

// Series is a per-day revenue chart.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// DailySeries buckets sales into the `days` calendar days ending today, in
// now's location. Labels are "dd/mm". Sales outside the window are ignored.
func DailySeries(now time.Time, days int, sales []SalePoint) Series {
	if days <= 0 {
		return Series{}
	}
	first := StartOfDay(now).AddDate(0, 0, -(days - 1))

	s := Series{
		Labels: make([]string, days),
		Values: make([]float64, days),
	}
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := first.AddDate(0, 0, i)
		s.Labels[i] = d.Format("02/01")
		index[d.Format("2006-01-02")] = i
	}
	for _, p := range sales {
		if i, ok := index[p.SaleTime.In(now.Location()).Format("2006-01-02")]; ok {
			s.Values[i] += p.TotalAmount
		}
	}

	s.Min, s.Max = s.Values[0], s.Values[0]
	for _, v := range s.Values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// ProductLine is one product's share of a period.
type ProductLine struct {
	ProductID    uint    `json:"product_id"`
	Name         string  `json:"name"`
	CategoryName string  `json:"category_name"`
	Quantity     int     `json:"quantity"`
	Revenue      float64 `json:"revenue"`
}

// SoldItem is a sale item joined with its product.
type SoldItem struct {
	ProductID    uint
	Name         string
	CategoryName string
	Quantity     int
	PriceAtSale  float64
}

// RankProducts groups sold items by product and sorts them by quantity,
// highest first. Ties are broken by revenue and then name.
func RankProducts(items []SoldItem) []ProductLine {
	byID := make(map[uint]*ProductLine)
	var order []uint
	for _, it := range items {
		line, ok := byID[it.ProductID]
		if !ok {
			name := it.Name
			if name == "" {
				name = "Bilinmeyen Ürün"
			}
			line = &ProductLine{ProductID: it.ProductID, Name: name, CategoryName: it.CategoryName}
			byID[it.ProductID] = line
			order = append(order, it.ProductID)
		}
		line.Quantity += it.Quantity
		line.Revenue += float64(it.Quantity) * it.PriceAtSale
	}

	out := make([]ProductLine, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Top returns at most n leading lines.
func Top(lines []ProductLine, n int) []ProductLine {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

// IsLow reports whether level is under the ingredient's threshold.
func IsLow(level, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return level < threshold
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek is Monday midnight of t's week.
func StartOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return StartOfDay(t).AddDate(0, 0, -(wd - 1))
}

// StartOfMonth is midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
