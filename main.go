package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/FCP2/Asistencia-web/internal/config"
	"github.com/FCP2/Asistencia-web/internal/publisher"
	"github.com/FCP2/Asistencia-web/internal/repository"
	"github.com/FCP2/Asistencia-web/internal/server"
	"github.com/FCP2/Asistencia-web/internal/service"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	log "github.com/sirupsen/logrus"

	"github.com/labstack/echo/v4"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err).Fatal("Could not load configuration")
	}

	log.Info("Starting database migration...")
	m, err := migrate.New("file://db/migrations", cfg.DB.URL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not create migrate instance")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.WithField("error", err).Fatal("Could not apply migration")
	}
	log.Info("Database migration finished successfully.")

	db, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not connect to the database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DB.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		log.WithField("error", err).Fatal("Could not ping the database")
	}
	log.Info("Successfully connected to the PostgreSQL database.")

	// Create store
	store := repository.NewPostgresStore(db)

	// Create services
	invitationService := service.NewInvitationService(store)
	personaService := service.NewPersonaService(store)

	// Notification dispatch is optional: without a broker the snapshots stay
	// in the table until something else drains them.
	if cfg.Kafka.Enabled() {
		pub, err := publisher.NewKafkaNotificationPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.Topic)
		if err != nil {
			log.WithField("error", err).Fatal("Could not create Kafka publisher")
		}
		defer pub.Close()

		dispatcher := service.NewDispatcher(store, pub, cfg.Kafka.DispatchInterval)
		go dispatcher.Run(context.Background())
		log.WithField("topic", cfg.Kafka.Topic).Info("Notification dispatcher started")
	} else {
		log.Info("KAFKA_BOOTSTRAP_SERVERS not set, notification dispatch disabled")
	}

	// Create server
	srv := server.NewServer(invitationService, personaService, db)

	// Setup Echo
	e := echo.New()
	e.Use(server.RequestID())

	// Health check
	e.GET("/health", srv.HealthCheck)

	api := e.Group("/api")

	// Persona catalog
	personas := api.Group("/personas")
	personas.GET("", srv.ListPersonas)
	personas.POST("", srv.CreatePersona)
	personas.PUT("/:id", srv.UpdatePersona)
	personas.DELETE("/:id", srv.DeletePersona)

	// Invitation CRUD
	invitations := api.Group("/invitations")
	invitations.GET("", srv.ListInvitations)
	invitations.POST("", srv.CreateInvitation)
	invitations.GET("/:id", srv.GetInvitation)
	invitations.PUT("/:id", srv.UpdateInvitation)
	invitations.DELETE("/:id", srv.DeleteInvitation)
	invitations.GET("/:id/history", srv.InvitationHistory)

	// Lifecycle actions
	invitations.POST("/:id/assign", srv.AssignInvitation)
	invitations.POST("/:id/reassign", srv.ReassignInvitation)
	invitations.POST("/:id/status", srv.ChangeInvitationStatus)
	invitations.POST("/:id/cancel", srv.CancelInvitation)

	// Conflict probe and reporting
	api.POST("/conflicts/check", srv.CheckConflict)
	api.GET("/stats", srv.Stats)
	api.GET("/counters", srv.Counters)

	log.WithField("port", cfg.Port).Info("Asistencia service is starting with Echo")

	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		log.WithField("error", err).Fatal("Echo server failed to start")
	}
}
