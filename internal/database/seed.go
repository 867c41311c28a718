package database

import (
	"errors"
	"fmt"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/models"

	"gorm.io/gorm"
)

// DefaultPaymentMethods is the fixed vocabulary offered at the register.
var DefaultPaymentMethods = []string{"Kredi Kartı", "Nakit"}

// SeedInput describes the first admin account created by `seed`.
type SeedInput struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	BranchName    string
}

// Seed creates the payment methods, a first branch and an admin user when
// they do not exist yet. Running it twice is harmless.
func Seed(db *gorm.DB, in SeedInput) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range DefaultPaymentMethods {
			pm := models.PaymentMethod{Name: name, IsActive: true}
			if err := tx.Where(models.PaymentMethod{Name: name}).FirstOrCreate(&pm).Error; err != nil {
				return fmt.Errorf("seed payment method %s: %w", name, err)
			}
		}

		var branch models.Branch
		err := tx.Where("name = ?", in.BranchName).First(&branch).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			branch = models.Branch{Name: in.BranchName}
			err = tx.Create(&branch).Error
		}
		if err != nil {
			return fmt.Errorf("seed branch: %w", err)
		}

		if in.AdminEmail == "" {
			return nil
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.AdminEmail).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		hash, err := auth.HashPassword(in.AdminPassword)
		if err != nil {
			return err
		}
		admin := models.User{
			Email:            in.AdminEmail,
			PasswordHash:     hash,
			FullName:         in.AdminName,
			Role:             string(auth.RoleAdmin),
			AssignedBranchID: &branch.ID,
		}
		return tx.Create(&admin).Error
	})
}
