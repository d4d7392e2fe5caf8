package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/societyhub/internal/app/auth"
	appControllers "github.com/yigit/societyhub/internal/app/controllers"
	appMigrations "github.com/yigit/societyhub/internal/app/migrations"
	appRepos "github.com/yigit/societyhub/internal/app/repositories"
	appRoutes "github.com/yigit/societyhub/internal/app/routes"
	appServices "github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/config"
	"github.com/yigit/societyhub/internal/db"
	appMiddleware "github.com/yigit/societyhub/internal/middleware"
	pkgAuth "github.com/yigit/societyhub/internal/pkg/auth"
	"github.com/yigit/societyhub/internal/pkg/cache"
	"github.com/yigit/societyhub/internal/pkg/email"
	"github.com/yigit/societyhub/internal/pkg/events"
	"github.com/yigit/societyhub/internal/pkg/filestorage"
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/logger"
	"github.com/yigit/societyhub/internal/pkg/payments"
	"github.com/yigit/societyhub/internal/pkg/validation"
	"github.com/yigit/societyhub/internal/pkg/websocket"
	"github.com/yigit/societyhub/internal/seed"
)

// DefaultConfigPath is used when no path is given
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	AuthMiddleware *appMiddleware.AuthMiddleware
	FileStorage    *filestorage.LocalStorage
	Redis          *redis.Client
	Publisher      events.Publisher
	Views          cache.ViewCounter
	Hub            *websocket.Hub

	AuthService       appServices.AuthService
	UserService       appServices.UserService
	SocietyService    appServices.SocietyService
	MembershipService appServices.MembershipService
	EventService      appServices.EventService
	NewsService       appServices.NewsService
	PaymentService    appServices.PaymentService
	WidgetService     appServices.WidgetService
	PollService       appServices.PollService
	PanelService      appServices.PanelService
	SearchService     appServices.SearchService

	Controllers *appRoutes.Controllers
	Logger      zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// PolicyFromConfig converts the policy section into service rules
func PolicyFromConfig(cfg *config.Config) appServices.Policy {
	def := appServices.DefaultPolicy()
	return appServices.Policy{
		MaxOwnedSocieties:       cfg.Policy.MaxOwnedSocieties,
		DeletionMemberThreshold: cfg.Policy.DeletionMemberThreshold,
		Currency:                strings.ToLower(cfg.Policy.Currency),
		ActivationTokenTTL:      def.ActivationTokenTTL,
		ActivationWindow:        helpers.ParseDuration(cfg.Policy.ActivationWindow, def.ActivationWindow),
		ReverifyAfter:           helpers.ParseDuration(cfg.Policy.ReverifyAfter, def.ReverifyAfter),
		ReverifyGrace:           helpers.ParseDuration(cfg.Policy.ReverifyGrace, def.ReverifyGrace),
		DeleteAfter:             helpers.ParseDuration(cfg.Policy.DeleteAfter, def.DeleteAfter),
	}
}

// ConnectDatabase opens the connection pool
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database.Pool, nil
}

// RunMigrations applies all pending schema migrations
func RunMigrations(cfg *config.Config, lgr zerolog.Logger) error {
	migrator, err := appMigrations.NewMigrator(cfg.GetMigrationURL(), lgr)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			lgr.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()
	return migrator.Up()
}

// SetupDatabase connects, migrates and seeds the database.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Running database migrations...")
	if err := RunMigrations(cfg, lgr); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	dbPool, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}

	admin := seed.AdminAccount{Email: cfg.Admin.Email, Password: cfg.Admin.Password}
	if err := seed.CreateDefaultData(context.Background(), appRepos.NewUserRepository(dbPool), admin, lgr); err != nil {
		// Seeding is best effort; the API works without an admin account
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
	return dbPool, nil
}

// NewViewCounter returns a redis-buffered counter when redis is configured,
// and a counter writing straight to the database otherwise.
func NewViewCounter(ctx context.Context, cfg *config.Config, store cache.ViewStore, lgr zerolog.Logger) (cache.ViewCounter, *redis.Client) {
	if !cfg.RedisEnabled() {
		lgr.Info().Msg("Redis not configured, counting news views directly in the database")
		return cache.NewDirectViewCounter(store), nil
	}

	client, err := cache.NewRedisClient(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, counting news views directly in the database")
		return cache.NewDirectViewCounter(store), nil
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis view counter enabled")
	return cache.NewRedisViewCounter(client, store), client
}

// NewPublisher returns a kafka publisher when brokers are configured and a logging one otherwise
func NewPublisher(cfg *config.Config, lgr zerolog.Logger) events.Publisher {
	if !cfg.KafkaEnabled() {
		lgr.Info().Msg("Kafka not configured, domain events are only logged")
		return events.NewLoggingPublisher(lgr)
	}
	lgr.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka publisher enabled")
	return events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, lgr)
}

// NewPaymentGateway returns the Stripe gateway when a key is configured
func NewPaymentGateway(cfg *config.Config, lgr zerolog.Logger) payments.Gateway {
	if cfg.Stripe.SecretKey == "" {
		lgr.Warn().Msg("Stripe not configured, paid memberships and events are unavailable")
		return payments.DisabledGateway{}
	}
	return payments.NewStripeGateway(payments.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	}, lgr)
}

// NewMailer builds the SMTP email service
func NewMailer(cfg *config.Config, lgr zerolog.Logger) email.EmailService {
	return email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		BaseURL:   cfg.Server.BaseURL,
	}, lgr)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	fileStorageBaseURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/uploads"
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, fileStorageBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	domains := validation.NewDomainPolicy(cfg.Policy.AllowedEmailDomains)
	if err := validation.RegisterWithGin(domains); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.MembershipRepository)
	deps.Views, deps.Redis = NewViewCounter(ctx, cfg, deps.Repos.NewsRepository, lgr)
	deps.Publisher = NewPublisher(cfg, lgr)
	deps.Hub = websocket.NewHub(lgr)

	policy := PolicyFromConfig(cfg)
	mailer := NewMailer(cfg, lgr)
	gateway := NewPaymentGateway(cfg, lgr)
	repos := deps.Repos

	deps.AuthService = appServices.NewAuthService(
		repos.UserRepository,
		repos.TokenRepository,
		repos.VerificationTokenRepository,
		deps.JWTService,
		mailer,
		domains,
		policy,
		lgr,
	)
	deps.UserService = appServices.NewUserService(repos.UserRepository, repos.VerificationTokenRepository, mailer, policy, lgr)
	deps.SocietyService = appServices.NewSocietyService(
		repos.SocietyRepository,
		repos.MembershipRepository,
		deps.AuthzService,
		deps.FileStorage,
		deps.Publisher,
		policy,
		lgr,
	)
	deps.MembershipService = appServices.NewMembershipService(
		repos.MembershipRepository,
		repos.SocietyRepository,
		repos.PaymentRepository,
		deps.AuthzService,
		mailer,
		deps.Publisher,
		lgr,
	)
	deps.EventService = appServices.NewEventService(
		repos.EventRepository,
		repos.SocietyRepository,
		repos.PaymentRepository,
		deps.AuthzService,
		deps.Publisher,
		lgr,
	)
	deps.NewsService = appServices.NewNewsService(
		repos.NewsRepository,
		repos.EventRepository,
		deps.AuthzService,
		deps.Views,
		deps.FileStorage,
		deps.Hub,
		deps.Publisher,
		lgr,
	)
	deps.PaymentService = appServices.NewPaymentService(
		repos.PaymentRepository,
		repos.EventRepository,
		repos.SocietyRepository,
		repos.UserRepository,
		gateway,
		deps.Publisher,
		policy,
		lgr,
	)
	deps.WidgetService = appServices.NewWidgetService(repos.WidgetRepository, deps.AuthzService, lgr)
	deps.PollService = appServices.NewPollService(repos.PollRepository, deps.AuthzService, deps.Hub, lgr)
	deps.PanelService = appServices.NewPanelService(
		repos.GalleryRepository,
		repos.CommentRepository,
		repos.MatchRepository,
		repos.HallOfFameRepository,
		deps.AuthzService,
		deps.FileStorage,
		deps.Hub,
		lgr,
	)
	deps.SearchService = appServices.NewSearchService(repos.SearchRepository, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)

	deps.Controllers = &appRoutes.Controllers{
		Auth: appControllers.NewAuthController(deps.AuthService, lgr),
		User: appControllers.NewUserController(
			deps.UserService, deps.MembershipService, deps.EventService, deps.PaymentService, lgr),
		Society:    appControllers.NewSocietyController(deps.SocietyService, lgr),
		Membership: appControllers.NewMembershipController(deps.MembershipService, lgr),
		Event:      appControllers.NewEventController(deps.EventService, lgr),
		News:       appControllers.NewNewsController(deps.NewsService, lgr),
		Payment:    appControllers.NewPaymentController(deps.PaymentService, lgr),
		Widget:     appControllers.NewWidgetController(deps.WidgetService, lgr),
		Poll:       appControllers.NewPollController(deps.PollService, lgr),
		Panel:      appControllers.NewPanelController(deps.PanelService, lgr),
		Search:     appControllers.NewSearchController(deps.SearchService, lgr),
		Admin:      appControllers.NewAdminController(deps.SocietyService, deps.UserService, lgr),
		LiveFeed:   websocket.NewHandler(deps.Hub, deps.AuthzService, lgr),
	}

	return deps, nil
}

// Close releases the external clients held by the dependencies
func (d *Dependencies) Close() error {
	var errs []error
	if d.Publisher != nil {
		errs = append(errs, d.Publisher.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(appMiddleware.Recovery(lgr), appMiddleware.RequestLogger(lgr))
	router.MaxMultipartMemory = 8 << 20

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
