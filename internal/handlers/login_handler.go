package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/middleware"
	"go-coffee-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	var user models.User
	email := strings.ToLower(trimmed(input.Email))
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	role, err := auth.ParseRole(user.Role)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account has no valid role"})
		return
	}

	var branchID uint
	if user.AssignedBranchID != nil {
		branchID = *user.AssignedBranchID
	}
	token, err := h.Tokens.GenerateToken(user.ID, user.Email, role, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"role":       role,
		"role_label": role.Label(),
		"full_name":  user.FullName,
		"email":      user.Email,
		"branch_id":  branchID,
	})
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// Register creates a cashier account. It is closed unless
// ALLOW_REGISTRATION is set.
func (h *Handler) Register(c *gin.Context) {
	if !h.AllowRegistration {
		c.JSON(http.StatusForbidden, gin.H{"error": "Registration is disabled"})
		return
	}
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and password are required"})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, passwordError(err))
		return
	}
	user := models.User{
		Email:        strings.ToLower(trimmed(input.Email)),
		PasswordHash: hash,
		FullName:     trimmed(input.FullName),
		Role:         string(auth.RoleCashier),
	}
	if err := h.createUser(c, &user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created", "id": user.ID})
}

// Me returns the caller's profile.
func (h *Handler) Me(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, p.UserID).Error; err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"role":       p.Role,
		"role_label": p.Role.Label(),
		"branch_id":  p.BranchID,
	}
	if p.BranchID != 0 {
		var branch models.Branch
		if err := h.DB.WithContext(c.Request.Context()).First(&branch, p.BranchID).Error; err == nil {
			resp["branch_name"] = branch.Name
		}
	}
	c.JSON(http.StatusOK, resp)
}

func passwordError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return invalid(err.Error())
	}
	return err
}
