package handlers

import (
	"net/http"

	"go-coffee-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/payment-methods --- (active only, for the register)
func (h *Handler) ListPaymentMethods(c *gin.Context) {
	var list []models.PaymentMethod
	q := h.DB.WithContext(c.Request.Context()).Order("name asc")
	if c.Query("all") != "true" {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type PaymentMethodInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (h *Handler) uniquePaymentName(c *gin.Context, name string, exceptID uint) error {
	var n int64
	err := h.DB.WithContext(c.Request.Context()).Model(&models.PaymentMethod{}).
		Where("name = ? AND id <> ?", name, exceptID).Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return conflict("A payment method with this name already exists")
	}
	return nil
}

func (h *Handler) CreatePaymentMethod(c *gin.Context) {
	var in PaymentMethodInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method name is required"})
		return
	}
	if in.Name = trimmed(in.Name); in.Name == "" {
		respondError(c, invalid("Payment method name is required"))
		return
	}
	if err := h.uniquePaymentName(c, in.Name, 0); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	pm := models.PaymentMethod{Name: in.Name, Description: in.Description, IsActive: true}
	if err := h.DB.WithContext(ctx).Create(&pm).Error; err != nil {
		respondError(c, err)
		return
	}
	if in.IsActive != nil && !*in.IsActive {
		if err := h.DB.WithContext(ctx).Model(&pm).Update("is_active", false).Error; err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, pm)
}

func (h *Handler) UpdatePaymentMethod(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var in PaymentMethodInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method name is required"})
		return
	}
	if in.Name = trimmed(in.Name); in.Name == "" {
		respondError(c, invalid("Payment method name is required"))
		return
	}
	if err := h.uniquePaymentName(c, in.Name, id); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var pm models.PaymentMethod
	if err := h.DB.WithContext(ctx).First(&pm, id).Error; err != nil {
		respondError(c, err)
		return
	}
	updates := map[string]interface{}{"name": in.Name, "description": in.Description}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := h.DB.WithContext(ctx).Model(&pm).Updates(updates).Error; err != nil {
		respondError(c, err)
		return
	}
	h.DB.WithContext(ctx).First(&pm, id)
	c.JSON(http.StatusOK, pm)
}

// DeletePaymentMethod refuses once any sale used the method.
func (h *Handler) DeletePaymentMethod(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	var n int64
	if err := h.DB.WithContext(ctx).Model(&models.Sale{}).Where("payment_method_id = ?", id).Count(&n).Error; err != nil {
		respondError(c, err)
		return
	}
	if n > 0 {
		respondError(c, conflict("This payment method was used in sales. Deactivate it instead."))
		return
	}

	res := h.DB.WithContext(ctx).Delete(&models.PaymentMethod{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, errNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted"})
}
