// Package catalog serves the register's product grid: active categories and
// active products with their category name.
package catalog

import (
	"context"
	"strings"
	"time"

	"go-coffee-pos/internal/cache"
	"go-coffee-pos/internal/metrics"
	"go-coffee-pos/internal/models"

	"gorm.io/gorm"
)

const (
	keyCategories = "catalog:categories"
	keyProducts   = "catalog:products"
)

// ProductView is a product as shown on the register.
type ProductView struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	ImageURL     string  `json:"image_url"`
}

// Filter narrows the product list. CategoryID 0 means every category; Search
// is a case-insensitive substring match on the name.
type Filter struct {
	CategoryID uint
	Search     string
}

type Reader struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

func NewReader(db *gorm.DB, c *cache.Cache, ttl time.Duration) *Reader {
	if c == nil {
		c = cache.Disabled()
	}
	return &Reader{db: db, cache: c, ttl: ttl}
}

// ActiveCategories lists active categories ordered by name.
func (r *Reader) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if r.lookup(ctx, keyCategories, &cats) {
		return cats, nil
	}
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name asc").Find(&cats).Error; err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, keyCategories, cats, r.ttl)
	return cats, nil
}

// ActiveProducts lists active products ordered by name, filtered in memory.
func (r *Reader) ActiveProducts(ctx context.Context, f Filter) ([]ProductView, error) {
	all, err := r.allActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]ProductView, 0, len(all))
	for _, p := range all {
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Product returns one active product for adding to a cart.
func (r *Reader) Product(ctx context.Context, id uint) (*ProductView, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND is_active = ?", id, true).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	v := toView(p)
	return &v, nil
}

// Invalidate drops the cached lists after an admin write.
func (r *Reader) Invalidate(ctx context.Context) {
	_ = r.cache.Del(ctx, keyCategories, keyProducts)
}

func (r *Reader) allActiveProducts(ctx context.Context) ([]ProductView, error) {
	var views []ProductView
	if r.lookup(ctx, keyProducts, &views) {
		return views, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).Preload("Category").
		Where("is_active = ?", true).
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	views = make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, toView(p))
	}
	_ = r.cache.Set(ctx, keyProducts, views, r.ttl)
	return views, nil
}

func (r *Reader) lookup(ctx context.Context, key string, dest interface{}) bool {
	if !r.cache.Enabled() {
		return false
	}
	if r.cache.Get(ctx, key, dest) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return true
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return false
}

func toView(p models.Product) ProductView {
	v := ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
	if p.CategoryID != nil {
		v.CategoryID = *p.CategoryID
	}
	if p.Category != nil {
		v.CategoryName = p.Category.Name
	}
	return v
}
