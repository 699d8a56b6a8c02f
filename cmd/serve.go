package cmd

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/vibast-solutions/ms-go-reports/app/controller"
	"github.com/vibast-solutions/ms-go-reports/app/middleware"
	"github.com/vibast-solutions/ms-go-reports/app/repository"
	"github.com/vibast-solutions/ms-go-reports/app/service"
	"github.com/vibast-solutions/ms-go-reports/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP server exposing the auth, report, chart, and sheet-mirror endpoints.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	for _, dir := range []string{cfg.DataDir, cfg.UploadsDir(), cfg.ExportsDir(), cfg.ChartsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.WithError(err).WithField("dir", dir).Fatal("Failed to create data directory")
		}
	}

	userDirectory := repository.NewUserDirectory()
	revocationList := repository.NewRevocationList(
		service.TokenTypeAccess,
		service.TokenTypeRefresh,
		service.TokenTypeReset,
	)

	requestLog, err := service.NewRequestLog(cfg.LogsFile())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize request log")
	}

	authService := service.NewAuthService(userDirectory, revocationList, cfg)
	reportService := service.NewReportService(cfg.UploadsDir(), cfg.ExportsDir(), cfg.ChartsDir(), requestLog)
	sheetMirror := service.NewSheetMirror(cfg.SheetSources, cfg.SheetFetchTimeout)
	chatService := service.NewChatService(reportService, cfg.UploadsDir(), cfg.ChatCacheTTL)

	if err := authService.SeedDevAdmin(context.Background()); err != nil {
		logrus.WithError(err).Fatal("Failed to seed development admin")
	}

	// Mirror the published sheets at startup without delaying readiness.
	go sheetMirror.LoadAll(context.Background())
	go chatService.Janitor(context.Background(), cfg.ChatCacheTTL)

	startHTTPServer(cfg, authService, reportService, requestLog, sheetMirror, chatService)
}

func startHTTPServer(
	cfg *config.Config,
	authService *service.AuthService,
	reportService *service.ReportService,
	requestLog *service.RequestLog,
	sheetMirror *service.SheetMirror,
	chatService *service.ChatService,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	RegisterRoutes(e, authService, reportService, requestLog, sheetMirror, chatService)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

// RegisterRoutes wires every endpoint onto the echo instance. Exported so
// tests can assemble the same route table the server runs.
func RegisterRoutes(
	e *echo.Echo,
	authService *service.AuthService,
	reportService *service.ReportService,
	requestLog *service.RequestLog,
	sheetMirror *service.SheetMirror,
	chatService *service.ChatService,
) {
	authController := controller.NewAuthController(authService)
	reportController := controller.NewReportController(reportService, requestLog, sheetMirror)
	chatController := controller.NewChatController(chatService, service.NewWhatsAppNotifier())
	authMiddleware := middleware.NewAuthMiddleware(authService)

	auth := e.Group("/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/password-reset", authController.RequestPasswordReset)
	auth.POST("/password-reset-confirm", authController.ConfirmPasswordReset)
	auth.POST("/validate-token", authController.ValidateToken)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.POST("/logout", authController.Logout)
	authProtected.GET("/me", authController.Me)
	authProtected.PATCH("/me", authController.UpdateProfile)

	api := e.Group("/api")
	api.GET("/status", reportController.Status)

	apiProtected := api.Group("")
	apiProtected.Use(authMiddleware.RequireAuth)
	apiProtected.POST("/upload/excel", reportController.Upload)
	apiProtected.POST("/reports/generate", reportController.Generate)
	apiProtected.GET("/history", reportController.History)
	apiProtected.POST("/charts/generate", reportController.GenerateChart)
	apiProtected.GET("/charts/:filename", reportController.ServeChart)
	apiProtected.GET("/sheets", reportController.ListSheets)
	apiProtected.GET("/sheets/reload", reportController.ReloadSheets)
	apiProtected.GET("/sheets/:id", reportController.GetSheet)
	apiProtected.POST("/chat/message", chatController.Message)
	apiProtected.GET("/chat/history", chatController.History)
	apiProtected.POST("/chat/clear-cache/:chat_type", chatController.ClearCache)
	apiProtected.GET("/chat/trash", chatController.ListTrash)
	apiProtected.DELETE("/chat/trash", chatController.EmptyTrash)
	apiProtected.DELETE("/uploads/:filename", chatController.Discard)
	apiProtected.POST("/whatsapp/enviar", chatController.SendWhatsApp)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
