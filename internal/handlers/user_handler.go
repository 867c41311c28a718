package handlers

import (
	"net/http"
	"strings"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/middleware"
	"go-coffee-pos/internal/models"

	"github.com/gin-gonic/gin"
)

type UserInput struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	Role             string `json:"role" binding:"required"`
	AssignedBranchID *uint  `json:"assigned_branch_id"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.WithContext(c.Request.Context()).Order("full_name asc").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var input UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and role are required"})
		return
	}
	role, err := auth.ParseRole(input.Role)
	if err != nil {
		respondError(c, invalid(err.Error()))
		return
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, passwordError(err))
		return
	}
	branchID, err := h.checkBranch(c, input.AssignedBranchID)
	if err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Email:            strings.ToLower(trimmed(input.Email)),
		PasswordHash:     hash,
		FullName:         trimmed(input.FullName),
		Role:             string(role),
		AssignedBranchID: branchID,
	}
	if err := h.createUser(c, &user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser changes profile, role and branch. The password is replaced only
// when one is sent.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var input UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and role are required"})
		return
	}
	role, err := auth.ParseRole(input.Role)
	if err != nil {
		respondError(c, invalid(err.Error()))
		return
	}
	branchID, err := h.checkBranch(c, input.AssignedBranchID)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		respondError(c, err)
		return
	}

	email := strings.ToLower(trimmed(input.Email))
	if email != user.Email {
		var n int64
		if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&n).Error; err != nil {
			respondError(c, err)
			return
		}
		if n > 0 {
			respondError(c, conflict("A user with this email already exists"))
			return
		}
	}

	updates := map[string]interface{}{
		"email":              email,
		"full_name":          trimmed(input.FullName),
		"role":               string(role),
		"assigned_branch_id": branchID,
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			respondError(c, passwordError(err))
			return
		}
		updates["password_hash"] = hash
	}
	if err := h.DB.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		respondError(c, err)
		return
	}
	h.DB.WithContext(ctx).First(&user, id)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if p := middleware.CurrentPrincipal(c); p != nil && p.UserID == id {
		respondError(c, conflict("You cannot delete your own account"))
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.User{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, errNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *Handler) createUser(c *gin.Context, user *models.User) error {
	ctx := c.Request.Context()
	var n int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return conflict("A user with this email already exists")
	}
	return h.DB.WithContext(ctx).Create(user).Error
}

// checkBranch verifies an optional branch reference; 0 means none.
func (h *Handler) checkBranch(c *gin.Context, id *uint) (*uint, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	var n int64
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.Branch{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, invalid("Branch does not exist")
	}
	return id, nil
}
