package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/monitoring"
	"github.com/legalconnect/legalconnect-api/services"
	"github.com/legalconnect/legalconnect-api/utils"
)

func main() {
	log.Println("Starting LegalConnect API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := utils.InitSentry(cfg.SentryDSN, cfg.GoEnv, "1.0.0"); err != nil {
		log.Printf("Sentry disabled: %v", err)
	}
	defer utils.FlushSentry()

	monitoring.Init()

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := config.GetDB()
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	ctx := context.Background()
	initStorage(ctx, cfg)

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("Failed to create notification publisher: %v", err)
		}
		services.SetNotificationPublisher(publisher)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Printf("Error closing notification publisher: %v", err)
			}
		}()
		log.Printf("Publishing notifications to Kafka topic %s", cfg.KafkaTopic)
	}

	if cfg.ElasticsearchURL != "" {
		index, err := services.NewElasticLawyerIndex(cfg.ElasticsearchURL, "lawyers")
		if err != nil {
			log.Printf("Lawyer search index unavailable, using database search: %v", err)
		} else {
			services.SetLawyerIndex(index)
			log.Println("Lawyer search backed by Elasticsearch")
		}
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := services.NewAccountService(db).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to bootstrap admin account: %v", err)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           SetupRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}

// initStorage uses S3 when a bucket is configured and the local upload directory otherwise
func initStorage(ctx context.Context, cfg *config.Config) {
	utils.UploadDir = cfg.UploadDir

	if cfg.AWSS3Bucket == "" {
		services.InitFileStorage(nil, cfg.UploadDir)
		log.Printf("Storing uploads locally in %s", cfg.UploadDir)
		return
	}

	s3Service, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}
	services.InitFileStorage(s3Service, cfg.UploadDir)
	log.Printf("Storing uploads in S3 bucket %s", cfg.AWSS3Bucket)
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "LegalConnect API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not initialized",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
