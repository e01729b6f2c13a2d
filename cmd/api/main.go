package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/LorenzoDantoni/ai-newsletter/db"
	"github.com/LorenzoDantoni/ai-newsletter/internal/handler"
	"github.com/LorenzoDantoni/ai-newsletter/internal/repository"
	"github.com/LorenzoDantoni/ai-newsletter/internal/schedule"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	loc := time.Local
	if tz := os.Getenv("NEWSLETTER_TZ"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("invalid NEWSLETTER_TZ %q: %v", tz, err)
		}
	}

	prefRepo := repository.NewPreferenceRepository(db.DB)
	queue := schedule.NewQueue(db.Redis)
	prefHandler := handler.NewPreferenceHandler(prefRepo, queue, loc)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "X-User-ID"},
	}))

	r.GET("/user-preferences", prefHandler.GetPreferences)
	r.POST("/subscriptions", prefHandler.Subscribe)
	r.DELETE("/subscriptions", prefHandler.Unsubscribe)
	r.GET("/health", prefHandler.GetHealth)

	err = r.Run(":8080")
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
