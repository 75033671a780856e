package bootstrap

import (
	"context"
	"log"

	"kidsgpt-be/internal/config"
	"kidsgpt-be/internal/controller"
	"kidsgpt-be/internal/handler"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/pkg/mailer"
	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/internal/repository/unitofwork"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/internal/websocket"
	"kidsgpt-be/pkg/chat/completion"
	"kidsgpt-be/pkg/chat/projection"
	"kidsgpt-be/pkg/chat/session"
	"kidsgpt-be/pkg/imagegen"
	"kidsgpt-be/pkg/llm/factory"
	pktNats "kidsgpt-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ProfileController    controller.IProfileController
	ChatController       controller.IChatController
	ParentController     controller.IParentController
	ComicController      controller.IComicController
	NavigationController controller.INavigationController

	// Background services, started by main
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger  logger.ILogger
	closers []func()
}

// NewContainer wires the application. db may be nil when STORE_DRIVER is
// "memory". The hub runs until ctx is cancelled.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 1. Record store
	var uowFactory unitofwork.RepositoryFactory
	if cfg.Database.StoreDriver == "memory" || db == nil {
		store, err := memory.NewStore()
		if err != nil {
			log.Fatalf("[FATAL] Failed to open in-memory record store: %v", err)
		}
		uowFactory = memory.NewRepositoryFactory(store)
		log.Println("[INFO] Using in-memory record store")
	} else {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	// 2. Providers
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		DefaultAPIKey: cfg.Ai.OpenAIAPIKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	completer := completion.NewClient(llmProvider, completion.Config{
		Model:      cfg.Ai.LLMModel,
		ScoreModel: cfg.Ai.ScoreModel,
		MaxTokens:  cfg.Ai.MaxTokens,
	}, sysLogger)
	imageGenerator := imagegen.NewOpenAIGenerator(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.ImageModel)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		sysLogger,
	)

	// 3. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	c := &Container{Logger: sysLogger}

	// A failed connection leaves the interface nil rather than holding a
	// nil *Publisher.
	var eventPublisher service.EventPublisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run(ctx)

	// 4. Services
	familyService := service.NewFamilyService(uowFactory, cfg.Ai.OpenAIAPIKey)
	conversationService := service.NewConversationService(uowFactory)
	publisherService := service.NewPublisherService(cfg.Alerts.ScoredReplyTopic, pubSub)
	scoreReporter := service.NewScoreReporter(publisherService, sysLogger)

	newManager := func() *session.Manager {
		return session.NewManager(conversationService, completer,
			session.WithKeyResolver(familyService),
			session.WithNotifier(wsHub),
			session.WithScoreReporter(scoreReporter),
			session.WithLogger(sysLogger),
		)
	}
	chatSessionService := service.NewChatSessionService(
		memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval, cfg.Session.MaxTabs),
		familyService,
		newManager,
		sysLogger,
	)

	imageService := service.NewImageService(imageGenerator, familyService, sysLogger)
	personalityService := service.NewPersonalityService(uowFactory, llmProvider, familyService, sysLogger)
	comicService := service.NewComicService(uowFactory, llmProvider, imageGenerator, familyService, sysLogger)

	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Alerts.ScoredReplyTopic,
		familyService,
		eventPublisher,
		cfg.Alerts.MisuseThreshold,
		sysLogger,
	)
	if natsSub != nil {
		c.NotificationService = service.NewNotificationService(
			natsSub,
			familyService,
			wsHub,
			emailService,
			cfg.App.ClientURL+"/parents",
			sysLogger,
		)
	}

	// 5. HTTP
	secret := cfg.App.JWTSecret
	c.WebSocketHub = wsHub
	c.NotificationHandler = handler.NewNotificationHandler(wsHub, secret, sysLogger)
	c.ProfileController = controller.NewProfileController(familyService, secret)
	c.ChatController = controller.NewChatController(chatSessionService, imageService, personalityService, secret)
	c.ParentController = controller.NewParentController(familyService, projection.NewProjector(conversationService), secret)
	c.ComicController = controller.NewComicController(comicService, secret)
	c.NavigationController = controller.NewNavigationController(familyService, secret)

	return c
}

// Close releases broker and cache connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
