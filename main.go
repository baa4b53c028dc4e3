package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/realestate-chat/modules/api"
	"github.com/example/realestate-chat/modules/auth"
	"github.com/example/realestate-chat/modules/chat"
	"github.com/example/realestate-chat/modules/notification"
	"github.com/example/realestate-chat/modules/presence"
	"github.com/example/realestate-chat/modules/realtime"
	"github.com/example/realestate-chat/modules/store"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/accesslog"
	"github.com/go-monolith/mono/middleware/requestid"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	httpPort := getEnvInt("PORT", 3000)
	dbDriver := getEnv("DB_DRIVER", store.DriverSQLite)
	dbDSN := getEnv("DB_DSN", "realestate_chat.db")
	redisAddr := getEnv("REDIS_ADDR", "")
	seed := getEnvBool("SEED_DEMO_DATA", false)

	log.Println("=== Real Estate Chat ===")
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Database: %s", dbDriver)
	if redisAddr == "" {
		log.Println("Redis: disabled")
	} else {
		log.Printf("Redis: %s", redisAddr)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Middleware must be registered before application modules
	requestIDMiddleware, err := requestid.New(
		requestid.WithHeaderName("X-Request-ID"),
	)
	if err != nil {
		log.Fatalf("Failed to create requestid middleware: %v", err)
	}
	if err := app.Register(requestIDMiddleware); err != nil {
		log.Fatalf("Failed to register requestid middleware: %v", err)
	}

	accessLogMiddleware, err := accesslog.New(
		accesslog.WithOutput(os.Stdout),
		accesslog.WithFormat(accesslog.FormatJSON),
		accesslog.WithFields([]accesslog.Field{
			accesslog.FieldTimestamp,
			accesslog.FieldRequestID,
			accesslog.FieldModule,
			accesslog.FieldService,
			accesslog.FieldDurationMS,
			accesslog.FieldStatus,
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create accesslog middleware: %v", err)
	}
	if err := app.Register(accessLogMiddleware); err != nil {
		log.Fatalf("Failed to register accesslog middleware: %v", err)
	}

	// Create modules
	hasher := auth.LoadPasswordHasher()
	storeModule := store.NewModule(store.Config{
		Driver:       dbDriver,
		DSN:          dbDSN,
		Seed:         seed,
		HashPassword: hasher.Hash,
	})
	authModule := auth.NewModule(storeModule, auth.LoadJWTConfig(), logger.WithModule("auth")).
		WithPasswordHasher(hasher)
	presenceModule := presence.NewModule(redisAddr)
	realtimeModule := realtime.NewModule(realtime.Config{
		HeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", realtime.DefaultHeartbeatInterval),
		StatsInterval:     getEnvDuration("WS_STATS_INTERVAL", realtime.DefaultStatsInterval),
		RateLimit:         getEnvFloat("WS_RATE_LIMIT", 10),
		RateBurst:         getEnvInt("WS_RATE_BURST", 20),
	}, storeModule, presenceModule, logger.WithModule("realtime"))
	chatModule := chat.NewModule(storeModule, logger.WithModule("chat"))
	notificationModule := notification.NewModule(storeModule, logger.WithModule("notification"))
	apiModule := api.NewModule(api.Config{
		Port:           httpPort,
		AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		RedisAddr:      redisAddr,
	}, realtimeModule, logger.WithModule("api"))

	apiModule.AddHealthCheck("store", storeModule)
	apiModule.AddHealthCheck("auth", authModule)
	apiModule.AddHealthCheck("presence", presenceModule)
	apiModule.AddHealthCheck("realtime", realtimeModule)
	apiModule.AddHealthCheck("chat", chatModule)
	apiModule.AddHealthCheck("notification", notificationModule)

	// Register modules with the framework.
	// Order: store first, then the services built on it, api last
	for _, module := range []mono.Module{
		storeModule,
		authModule,
		presenceModule,
		realtimeModule,
		chatModule,
		notificationModule,
		apiModule,
	} {
		if err := app.Register(module); err != nil {
			log.Fatalf("Failed to register %s module: %v", module.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(httpPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("  GET    /health                           - Health check")
	log.Println("  POST   /api/v1/auth/login                - Login, returns JWT")
	log.Println("  GET    /api/v1/auth/me                   - Current user")
	log.Println("  POST   /api/v1/chat/rooms                - Create a room")
	log.Println("  GET    /api/v1/chat/rooms                - List my rooms")
	log.Println("  POST   /api/v1/chat/direct               - Find or create a direct room")
	log.Println("  GET    /api/v1/chat/rooms/:roomId/messages - Message history")
	log.Println("  PUT    /api/v1/chat/rooms/:roomId/read   - Mark room read")
	log.Println("  POST   /api/v1/chat/rooms/:roomId/leave  - Leave room")
	log.Println("  GET    /api/v1/notifications             - My notifications")
	log.Println("  GET    /api/v1/presence/:userId          - Online status")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%d/ws):", port)
	log.Println(`  {"command":"user_login","userId":"1","token":"<jwt>","uuid":"<device>"}`)
	log.Println(`  {"command":"user_message","roomId":"1","content":"hi","messageType":"TEXT"}`)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvFloat returns environment variable as float64 or default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid float value for %s: %s, using default: %g", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
