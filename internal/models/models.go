package models

import (
	"time"
)

// Branch - A physical coffee shop
type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Address   string    `json:"address"`
	Phone     string    `gorm:"size:40" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product - Something the cashier can ring up
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:160;not null" json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	ImageURL    string    `json:"image_url"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ingredient - Raw material consumed by recipes (milk, beans, cups)
type Ingredient struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:120;not null" json:"name"`
	Unit              string    `gorm:"size:20" json:"unit"`   // 'g', 'ml', 'adet'
	StockQuantity     float64   `json:"stock_quantity"`        // Chain-wide stock, informational
	LowStockThreshold float64   `json:"low_stock_threshold"`   // Below this the item is flagged
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductIngredient - One line of a product's recipe
type ProductIngredient struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	ProductID        uint        `gorm:"not null;index" json:"product_id"`
	IngredientID     uint        `gorm:"not null;index" json:"ingredient_id"`
	Ingredient       *Ingredient `json:"ingredient,omitempty"`
	QuantityRequired float64     `json:"quantity_required"` // Per unit sold
}

// BranchIngredientStock - How much of an ingredient a branch has on hand
type BranchIngredientStock struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	BranchID     uint        `gorm:"not null;uniqueIndex:idx_branch_ingredient" json:"branch_id"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_branch_ingredient" json:"ingredient_id"`
	Ingredient   *Ingredient `json:"ingredient,omitempty"`
	StockLevel   float64     `json:"stock_level"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type PaymentMethod struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:60;uniqueIndex;not null" json:"name"` // 'Kredi Kartı', 'Nakit'
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// User - Staff profile used for login, role checks and branch assignment
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Email            string    `gorm:"uniqueIndex;size:120" json:"email"`
	PasswordHash     string    `json:"-"` // Never return this in JSON
	FullName         string    `gorm:"size:120" json:"full_name"`
	Role             string    `gorm:"size:30" json:"role"` // 'admin', 'cashier', 'branch_manager'
	AssignedBranchID *uint     `gorm:"index" json:"assigned_branch_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Sale - The Transaction Header
type Sale struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	BranchID        uint           `gorm:"index" json:"branch_id"`
	UserID          uint           `gorm:"index" json:"user_id"` // Who processed it
	PaymentMethodID uint           `gorm:"index" json:"payment_method_id"`
	PaymentMethod   *PaymentMethod `json:"payment_method,omitempty"`
	TotalAmount     float64        `json:"total_amount"`
	SaleTime        time.Time      `gorm:"index" json:"sale_time"`
	Items           []SaleItem     `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

// SaleItem - One cart line of a sale
type SaleItem struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	SaleID      uint     `gorm:"index" json:"sale_id"`
	ProductID   uint     `gorm:"index" json:"product_id"`
	Product     *Product `json:"product,omitempty"`
	Quantity    int      `json:"quantity"`
	PriceAtSale float64  `json:"price_at_sale"` // Snapshot of price at time of sale
}

// All lists every model for AutoMigrate and test setup.
func All() []interface{} {
	return []interface{}{
		&Branch{},
		&Category{},
		&Product{},
		&Ingredient{},
		&ProductIngredient{},
		&BranchIngredientStock{},
		&PaymentMethod{},
		&User{},
		&Sale{},
		&SaleItem{},
	}
}
