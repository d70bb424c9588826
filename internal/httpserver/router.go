package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"modelgallery/internal/domain"
	"modelgallery/internal/viewer"
)

// CatalogService is the product listing used by the gallery.
type CatalogService interface {
	List(ctx context.Context, query string) ([]domain.ProductRecord, error)
	Get(ctx context.Context, id int64) (*domain.ProductRecord, error)
}

// CategoryService lists the gallery's category facets.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// AccountService covers signup, login and bearer token checks.
type AccountService interface {
	Signup(ctx context.Context, email, password, displayName string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

// ViewerSessions is implemented by *viewer.Registry.
type ViewerSessions interface {
	Open(token string, productID int64) *viewer.Session
	Get(id string) (*viewer.Session, error)
	SwitchProduct(id string, productID int64) (*viewer.Session, error)
	Retry(id string) (*viewer.Session, error)
	Close(id string) error
}

// AssetValidator certifies a model locator.
type AssetValidator interface {
	Validate(ctx context.Context, locator string) bool
}

// Deps groups the services the router dispatches to.
type Deps struct {
	Catalog    CatalogService
	Categories CategoryService
	Accounts   AccountService
	Viewer     ViewerSessions
	Assets     AssetValidator

	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty allows any origin.
	CORSOrigins []string
	// StaticDir is served under /static when set.
	StaticDir string
	// SettleTimeout bounds how long viewer handlers wait for a session to
	// leave Loading before answering with the in-flight state.
	SettleTimeout time.Duration
}

type ctxKey string

const userCtxKey ctxKey = "user"

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Categories == nil || deps.Accounts == nil || deps.Viewer == nil || deps.Assets == nil {
		return nil, errors.New("httpserver: missing dependency")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.SettleTimeout <= 0 {
		deps.SettleTimeout = 35 * time.Second
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	if deps.StaticDir != "" {
		router.Static("/static", deps.StaticDir)
	}
	if db != nil {
		router.GET("/readyz", readyHandler(db))
	} else {
		router.GET("/readyz", readyHandler(nil))
	}

	h := &handlers{deps: deps, logger: logger}

	auth := router.Group("/api/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)

	api := router.Group("/api", authMiddleware(deps.Accounts))
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)
	api.GET("/me", h.me)
	// The validator fetches arbitrary locators server side; keep it behind auth.
	api.GET("/assets/validate", h.validateAsset)

	// Viewer sessions take the bearer token as the session credential. A
	// missing token is not rejected here: the controller routes to login.
	sessions := router.Group("/viewer/sessions")
	sessions.POST("", h.openSession)
	sessions.GET("/:sid", h.getSession)
	sessions.PUT("/:sid/product", h.switchProduct)
	sessions.POST("/:sid/retry", h.retrySession)
	sessions.DELETE("/:sid", h.closeSession)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// authMiddleware rejects requests without a valid bearer token and stores
// the authenticated user in the request context.
func authMiddleware(accounts AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			writeError(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		ctx := context.WithValue(c.Request.Context(), userCtxKey, user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func userFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*domain.User)
	return u, ok
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"statusCode": status, "message": message})
}
