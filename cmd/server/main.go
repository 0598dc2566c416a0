package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/GoSymptom/internal/config"
	"github.com/Skufu/GoSymptom/internal/diagnose"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Diagnoser interface {
	Diagnose(ctx context.Context, text string) (diagnose.Report, error)
}

// server carries everything the handlers need. It is built once in main and
// never mutated while serving.
type server struct {
	svc    Diagnoser
	db     HealthChecker
	status diagnose.Status
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	cfg.ArtifactDir = detectArtifactDir(cfg.ArtifactDir, cfg.VectorizerFile)
	svc, status, err := diagnose.Build(cfg, log.Default())
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	log.Printf("artifacts loaded from %s: %d features, %d classes", cfg.ArtifactDir, status.Features, status.Classes)

	ctx := context.Background()
	var db HealthChecker
	if cfg.EnableDB {
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer pool.Close()
		db = pool
	}

	router := setupRouter(&server{svc: svc, db: db, status: status})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	log.Printf("server listening on :%s", cfg.Port)
	waitForShutdown(httpServer)
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func setupRouter(s *server) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(loadTemplates())
	router.Use(
		requestID(),
		gin.LoggerWithFormatter(logFormatter),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.GET("/", s.handleIndex)
	router.POST("/predict", s.handlePredictForm)
	router.POST("/api/predict", s.handlePredictAPI)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		body := gin.H{"status": "ok", "artifacts": s.status, "db": "disabled"}
		if s.db == nil {
			c.JSON(http.StatusOK, body)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["db"] = fmt.Sprintf("unhealthy: %v", err)
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}

		body["db"] = "ok"
		c.JSON(http.StatusOK, body)
	})

	return router
}

// requestID accepts a caller-supplied UUID or mints one, and threads it into the
// request context so service log lines can be correlated with access logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(diagnose.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func logFormatter(p gin.LogFormatterParams) string {
	id, _ := p.Keys[requestIDKey].(string)
	return fmt.Sprintf("[GIN] %s | %3d | %13v | %15s | %-7s %#v | %s\n%s",
		p.TimeStamp.Format("2006/01/02 - 15:04:05"),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		p.Path,
		id,
		p.ErrorMessage,
	)
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// detectArtifactDir resolves a relative artifact directory against the working
// directory and its two parents, so the server can be started from cmd/server.
func detectArtifactDir(dir, probe string) string {
	if filepath.IsAbs(dir) {
		return dir
	}

	startDir, err := os.Getwd()
	if err != nil {
		return dir
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, base := range candidates {
		if fileExists(filepath.Join(base, dir, probe)) {
			return filepath.Join(base, dir)
		}
	}

	return dir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
