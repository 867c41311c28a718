// Package reports answers the back office's sales, product and stock
// questions. Queries live here; the arithmetic lives in aggregate.go.
package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"go-coffee-pos/internal/models"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Period is [From, To). A zero To leaves the range open.
type Period struct {
	From time.Time
	To   time.Time
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// salesIn scopes a query on the sales table to a branch (0 = every branch)
// and a period.
func salesIn(branchID uint, p Period) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if branchID != 0 {
			db = db.Where("sales.branch_id = ?", branchID)
		}
		if !p.From.IsZero() {
			db = db.Where("sales.sale_time >= ?", p.From)
		}
		if !p.To.IsZero() {
			db = db.Where("sales.sale_time < ?", p.To)
		}
		return db
	}
}

// SalesSummary totals sales in the period.
func (s *Service) SalesSummary(ctx context.Context, branchID uint, p Period) (Summary, error) {
	var amounts []float64
	err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Scopes(salesIn(branchID, p)).
		Pluck("total_amount", &amounts).Error
	if err != nil {
		return Summary{}, err
	}
	return Summarize(amounts), nil
}

// SaleRow is one line of the sales list.
type SaleRow struct {
	ID            uint      `json:"id"`
	BranchID      uint      `json:"branch_id"`
	UserID        uint      `json:"user_id"`
	SaleTime      time.Time `json:"sale_time"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
}

// Page is one page of sales plus the exact number of matching rows.
type Page struct {
	Rows  []SaleRow `json:"rows"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}

// SalesPage lists sales newest first. Page numbers start at 1.
func (s *Service) SalesPage(ctx context.Context, branchID uint, p Period, page, size int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	out := &Page{Page: page, Size: size, Rows: []SaleRow{}}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Sale{}).Scopes(salesIn(branchID, p)).Count(&out.Total).Error; err != nil {
		return nil, err
	}

	var sales []models.Sale
	err := db.Scopes(salesIn(branchID, p)).
		Preload("PaymentMethod").
		Order("sale_time desc, id desc").
		Offset((page - 1) * size).
		Limit(size).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	for _, sale := range sales {
		row := SaleRow{
			ID:          sale.ID,
			BranchID:    sale.BranchID,
			UserID:      sale.UserID,
			SaleTime:    sale.SaleTime,
			TotalAmount: sale.TotalAmount,
		}
		if sale.PaymentMethod != nil {
			row.PaymentMethod = sale.PaymentMethod.Name
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// ProductReport is the per-product breakdown of a period.
type ProductReport struct {
	Lines         []ProductLine `json:"lines"`
	TotalQuantity int           `json:"total_quantity"`
	TotalRevenue  float64       `json:"total_revenue"`
}

func (s *Service) soldItems(ctx context.Context, branchID uint, p Period) ([]SoldItem, error) {
	var items []SoldItem
	err := s.db.WithContext(ctx).Table("sale_items").
		Select("sale_items.product_id, products.name, categories.name AS category_name, sale_items.quantity, sale_items.price_at_sale").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("LEFT JOIN products ON products.id = sale_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Scopes(salesIn(branchID, p)).
		Scan(&items).Error
	return items, err
}

// ProductReport ranks products by quantity sold in the period.
func (s *Service) ProductReport(ctx context.Context, branchID uint, p Period) (*ProductReport, error) {
	items, err := s.soldItems(ctx, branchID, p)
	if err != nil {
		return nil, err
	}
	r := &ProductReport{Lines: RankProducts(items)}
	for _, l := range r.Lines {
		r.TotalQuantity += l.Quantity
		r.TotalRevenue += l.Revenue
	}
	return r, nil
}

// StockRow is a branch's holding of one ingredient.
type StockRow struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Level        float64 `json:"stock_level"`
	Threshold    float64 `json:"low_stock_threshold"`
	Low          bool    `json:"low"`
}

type StockReport struct {
	Rows     []StockRow `json:"rows"`
	LowCount int        `json:"low_count"`
}

// StockReport lists a branch's ingredient stock ordered by ingredient name.
func (s *Service) StockReport(ctx context.Context, branchID uint) (*StockReport, error) {
	var stocks []models.BranchIngredientStock
	err := s.db.WithContext(ctx).Preload("Ingredient").
		Where("branch_id = ?", branchID).
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}

	r := &StockReport{Rows: make([]StockRow, 0, len(stocks))}
	for _, st := range stocks {
		row := StockRow{IngredientID: st.IngredientID, Level: st.StockLevel}
		if st.Ingredient != nil {
			row.Name = st.Ingredient.Name
			row.Unit = st.Ingredient.Unit
			row.Threshold = st.Ingredient.LowStockThreshold
		}
		row.Low = IsLow(row.Level, row.Threshold)
		if row.Low {
			r.LowCount++
		}
		r.Rows = append(r.Rows, row)
	}
	sort.SliceStable(r.Rows, func(i, j int) bool {
		return strings.ToLower(r.Rows[i].Name) < strings.ToLower(r.Rows[j].Name)
	})
	return r, nil
}

// Dashboard is the branch home screen.
type Dashboard struct {
	Daily        Summary       `json:"daily"`
	Weekly       Summary       `json:"weekly"`
	Monthly      Summary       `json:"monthly"`
	LastSevenDay Series        `json:"last_seven_days"`
	TopToday     []ProductLine `json:"top_today"`
	LowStock     []StockRow    `json:"low_stock"`
	ProductCount int64         `json:"product_count"`
}

// Dashboard builds the home screen for branchID as of now.
func (s *Service) Dashboard(ctx context.Context, branchID uint, now time.Time) (*Dashboard, error) {
	var d Dashboard
	var err error

	today := StartOfDay(now)
	if d.Daily, err = s.SalesSummary(ctx, branchID, Period{From: today}); err != nil {
		return nil, err
	}
	if d.Weekly, err = s.SalesSummary(ctx, branchID, Period{From: StartOfWeek(now)}); err != nil {
		return nil, err
	}
	if d.Monthly, err = s.SalesSummary(ctx, branchID, Period{From: StartOfMonth(now)}); err != nil {
		return nil, err
	}

	var points []SalePoint
	err = s.db.WithContext(ctx).Model(&models.Sale{}).
		Select("sale_time, total_amount").
		Scopes(salesIn(branchID, Period{From: today.AddDate(0, 0, -6)})).
		Order("sale_time").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	d.LastSevenDay = DailySeries(now, 7, points)

	items, err := s.soldItems(ctx, branchID, Period{From: today})
	if err != nil {
		return nil, err
	}
	d.TopToday = Top(RankProducts(items), 3)

	stock, err := s.StockReport(ctx, branchID)
	if err != nil {
		return nil, err
	}
	d.LowStock = []StockRow{}
	for _, row := range stock.Rows {
		if row.Low {
			d.LowStock = append(d.LowStock, row)
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true).Count(&d.ProductCount).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
