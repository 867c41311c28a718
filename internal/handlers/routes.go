package handlers

import (
	"net/http"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/metrics"
	mw "go-coffee-pos/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.POST("/login", h.Login)
	r.POST("/register", h.Register)
	r.GET("/health", h.Health)
	r.GET("/metrics", metrics.Handler())

	staff := []auth.Role{auth.RoleAdmin, auth.RoleBranchManager}

	r.GET("/ws/sales", mw.AuthMiddleware(h.Tokens), mw.RequireRole(staff...), h.LiveSales)

	api := r.Group("/api", mw.AuthMiddleware(h.Tokens))
	{
		// Register
		api.GET("/me", h.Me)
		api.GET("/categories", h.ListCategories)
		api.GET("/products", h.ListProducts)
		api.GET("/payment-methods", h.ListPaymentMethods)
		api.GET("/cart", h.GetCart)
		api.DELETE("/cart", h.ClearCart)
		api.POST("/cart/items", h.AddCartItem)
		api.DELETE("/cart/items/:productId", h.RemoveCartItem)
		api.POST("/checkout", h.Checkout)

		// Branch staff
		mgr := api.Group("", mw.RequireRole(staff...))
		mgr.GET("/dashboard", h.Dashboard)
		mgr.GET("/reports/summary", h.SalesSummary)
		mgr.GET("/reports/sales", h.SalesList)
		mgr.GET("/reports/products", h.ProductReport)
		mgr.GET("/reports/stock", h.StockReport)
		mgr.GET("/branches/:id/stock", h.BranchStock)
		mgr.PUT("/branches/:id/stock/:ingredientId", h.SetBranchStock)
		mgr.POST("/branches/:id/stock/:ingredientId/adjust", h.AdjustBranchStock)

		// Admin
		admin := api.Group("", mw.RequireRole(auth.RoleAdmin))
		admin.GET("/branches", h.ListBranches)
		admin.POST("/branches", h.CreateBranch)
		admin.PUT("/branches/:id", h.UpdateBranch)
		admin.DELETE("/branches/:id", h.DeleteBranch)

		admin.GET("/admin/categories", h.AdminCategories)
		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.GET("/admin/products", h.AdminProducts)
		admin.POST("/products", h.AddProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.GET("/products/:id/recipe", h.GetRecipe)
		admin.PUT("/products/:id/recipe", h.ReplaceRecipe)

		admin.GET("/ingredients", h.ListIngredients)
		admin.POST("/ingredients", h.CreateIngredient)
		admin.PUT("/ingredients/:id", h.UpdateIngredient)
		admin.DELETE("/ingredients/:id", h.DeleteIngredient)

		admin.POST("/payment-methods", h.CreatePaymentMethod)
		admin.PUT("/payment-methods/:id", h.UpdatePaymentMethod)
		admin.DELETE("/payment-methods/:id", h.DeletePaymentMethod)

		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.POST("/upload", h.UploadImage)
		admin.POST("/ask", h.AskAI)
	}
}

// Health pings the database.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
