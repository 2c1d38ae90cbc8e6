package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// NewRouter constructs the Gin engine with routes wired. Public surface:
// storefront pages, read-only product listing, and the auth endpoints.
// Catalog mutations and the admin API require an admin bearer token; admin
// pages require an admin auth cookie.
func NewRouter(cfg Config, tokens *TokenService, authService AuthService, users UserRepository, products ProductRepository, cache *ProductCache) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	r.Use(OriginRefererMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", func(c *gin.Context) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "Invalid request body")
				return
			}
			if strings.TrimSpace(req.Email) == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, "Email and password are required.")
				return
			}

			user, err := authService.Authenticate(c.Request.Context(), req.Email, req.Password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					// Unknown email and wrong password answer identically.
					respondError(c, http.StatusUnauthorized, "Invalid credentials")
					return
				}
				logInternal("login", err)
				respondError(c, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			issueAuthResponse(c, cfg, tokens, user, http.StatusOK, "Login successful")
		})

		api.POST("/auth/register", func(c *gin.Context) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
				Name     string `json:"name"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "Invalid request body")
				return
			}
			if strings.TrimSpace(req.Email) == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, "Email and password are required.")
				return
			}

			var name *string
			if n := strings.TrimSpace(req.Name); n != "" {
				name = &n
			}

			user, err := authService.Register(c.Request.Context(), strings.TrimSpace(req.Email), req.Password, name)
			if err != nil {
				if errors.Is(err, ErrEmailTaken) {
					respondError(c, http.StatusConflict, "User with this email already exists.")
					return
				}
				logInternal("register", err)
				respondError(c, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			issueAuthResponse(c, cfg, tokens, user, http.StatusCreated, "User registered successfully.")
		})

		api.GET("/products", func(c *gin.Context) {
			filter := ProductFilter{
				Category: c.Query("category"),
				Search:   c.Query("search"),
			}
			ctx := c.Request.Context()

			if cache != nil {
				if items, ok := cache.GetList(ctx, filter); ok {
					respondSuccess(c, http.StatusOK, fmt.Sprintf("Fetched %d products", len(items)), items)
					return
				}
			}

			items, err := products.List(ctx, filter)
			if err != nil {
				logInternal("list products", err)
				respondError(c, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if cache != nil {
				cache.SetList(ctx, filter, items)
			}
			respondSuccess(c, http.StatusOK, fmt.Sprintf("Fetched %d products", len(items)), items)
		})

		api.GET("/products/:id", func(c *gin.Context) {
			p, err := products.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					respondError(c, http.StatusNotFound, "Product not found")
					return
				}
				logInternal("get product", err)
				respondError(c, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			respondSuccess(c, http.StatusOK, "Success", p)
		})

		// Catalog mutations are admin-only over the bearer header.
		mutating := api.Group("/products")
		mutating.Use(RequireAdmin(tokens))
		{
			mutating.POST("", func(c *gin.Context) {
				var req struct {
					Name        string  `json:"name"`
					Description string  `json:"description"`
					Price       float64 `json:"price"`
					Category    string  `json:"category"`
					ImageURL    string  `json:"imageUrl"`
					Stock       int     `json:"stock"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					respondError(c, http.StatusBadRequest, "Invalid request body")
					return
				}
				if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" || req.Price == 0 {
					respondError(c, http.StatusBadRequest, "Name, price, and category are required")
					return
				}
				if req.Price <= 0 {
					respondError(c, http.StatusBadRequest, "Price must be a valid number greater than zero")
					return
				}

				in := ProductInput{
					Name:     req.Name,
					Price:    req.Price,
					Category: req.Category,
					Stock:    req.Stock,
				}
				if d := strings.TrimSpace(req.Description); d != "" {
					in.Description = &d
				}
				if u := strings.TrimSpace(req.ImageURL); u != "" {
					in.ImageURL = &u
				}

				ctx := c.Request.Context()
				p, err := products.Create(ctx, in)
				if err != nil {
					logInternal("create product", err)
					respondError(c, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				if cache != nil {
					cache.Invalidate(ctx)
				}
				respondSuccess(c, http.StatusCreated, "Product created successfully", p)
			})

			mutating.PUT("/:id", func(c *gin.Context) {
				var req struct {
					Name        *string  `json:"name"`
					Description *string  `json:"description"`
					Price       *float64 `json:"price"`
					Category    *string  `json:"category"`
					ImageURL    *string  `json:"imageUrl"`
					Stock       *int     `json:"stock"`
					IsActive    *bool    `json:"isActive"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					respondError(c, http.StatusBadRequest, "Invalid request body")
					return
				}
				if req.Price != nil && *req.Price <= 0 {
					respondError(c, http.StatusBadRequest, "Price must be greater than 0")
					return
				}

				ctx := c.Request.Context()
				p, err := products.Update(ctx, c.Param("id"), ProductPatch{
					Name:        req.Name,
					Description: req.Description,
					Price:       req.Price,
					Category:    req.Category,
					ImageURL:    req.ImageURL,
					Stock:       req.Stock,
					IsActive:    req.IsActive,
				})
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						respondError(c, http.StatusNotFound, "Product not found")
						return
					}
					logInternal("update product", err)
					respondError(c, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				if cache != nil {
					cache.Invalidate(ctx)
				}
				respondSuccess(c, http.StatusOK, "Product updated successfully", p)
			})

			mutating.DELETE("/:id", func(c *gin.Context) {
				ctx := c.Request.Context()
				p, err := products.Deactivate(ctx, c.Param("id"))
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						respondError(c, http.StatusNotFound, "Product not found")
						return
					}
					logInternal("delete product", err)
					respondError(c, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				if cache != nil {
					cache.Invalidate(ctx)
				}
				respondSuccess(c, http.StatusOK, "Product deleted successfully", p)
			})
		}

		admin := api.Group("/admin")
		admin.Use(RequireAdmin(tokens))
		{
			admin.GET("/users", func(c *gin.Context) {
				page, perPage, err := parsePagination(c.Query("page"), c.Query("per_page"))
				if err != nil {
					respondError(c, http.StatusBadRequest, err.Error())
					return
				}
				items, total, err := users.List(c.Request.Context(), page, perPage)
				if err != nil {
					logInternal("list users", err)
					respondError(c, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"items":       items,
					"page":        page,
					"per_page":    perPage,
					"total_items": total,
					"total_pages": calcTotalPages(total, perPage),
				})
			})

			admin.GET("/system/status", func(c *gin.Context) {
				st, err := CollectSystemStatus(c.Request.Context(), users, products, startedAt)
				if err != nil {
					logInternal("system status", err)
					respondError(c, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				c.JSON(http.StatusOK, st)
			})

			admin.POST("/products/import", func(c *gin.Context) {
				data, err := c.GetRawData()
				if err != nil {
					respondError(c, http.StatusBadRequest, "Failed to read request body")
					return
				}
				inputs, err := ParseProductCatalog(data)
				if err != nil {
					respondError(c, http.StatusBadRequest, err.Error())
					return
				}

				ctx := c.Request.Context()
				ids := make([]string, 0, len(inputs))
				for _, in := range inputs {
					p, err := products.Create(ctx, in)
					if err != nil {
						logInternal("import product", err)
						// Earlier rows are already committed, so listings
						// must not keep serving the pre-import snapshot.
						if cache != nil && len(ids) > 0 {
							cache.Invalidate(ctx)
						}
						respondError(c, http.StatusInternalServerError, fmt.Sprintf("Import failed at %d/%d", len(ids)+1, len(inputs)))
						return
					}
					ids = append(ids, p.ID)
				}
				if cache != nil {
					cache.Invalidate(ctx)
				}
				respondSuccess(c, http.StatusCreated, fmt.Sprintf("Imported %d products", len(ids)), gin.H{"ids": ids})
			})
		}
	}

	// Browser pages. Presentation lives in the frontend; these are the shells
	// the guard redirects between.
	r.GET("/", pageHandler("Storefront"))
	r.GET("/login", pageHandler("Login"))
	r.GET("/register", pageHandler("Register"))
	r.GET("/admin/*page", AdminPageGuard(tokens), pageHandler("Admin"))

	return r
}

// issueAuthResponse signs a token for user and sends it in both the body and
// the auth cookie. Cookie Max-Age equals the token TTL so they expire together.
func issueAuthResponse(c *gin.Context, cfg Config, tokens *TokenService, user User, status int, message string) {
	token, err := tokens.Issue(user)
	if err != nil {
		logInternal("issue token", err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

func pageHandler(title string) gin.HandlerFunc {
	page := fmt.Sprintf("<!DOCTYPE html><html><head><title>%s</title></head><body><div id=\"root\"></div></body></html>", title)
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, page)
	}
}
