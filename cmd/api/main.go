package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	brokerAdapter "spachat/internal/infrastructure/broker/adapter"
	bport "spachat/internal/infrastructure/broker/port"
	cacheAdapter "spachat/internal/infrastructure/cache/adapter"
	"spachat/internal/infrastructure/database"
	queueAdapter "spachat/internal/infrastructure/queue/adapter"
	"spachat/internal/infrastructure/realtime"
	streamAdapter "spachat/internal/infrastructure/stream/adapter"
	sport "spachat/internal/infrastructure/stream/port"
	"spachat/internal/pkg/chat/application/task"
	"spachat/internal/pkg/chat/fanout"
	httpHandler "spachat/internal/pkg/chat/presentation/http"
	repoAdapter "spachat/internal/pkg/chat/persistence/repository/adapter"
	identityAdapter "spachat/internal/repository/adapter"
	identity "spachat/internal/repository/port"

	v1 "spachat/cmd/api/router/v1"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := database.NewPoolFromEnv(connectCtx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Pub/sub transport. Without Redis the process still serves HTTP; the
	// in-memory broker keeps push working for sockets on this node only.
	var broker bport.Broker
	if rb, err := brokerAdapter.NewRedisBrokerFromEnv(); err != nil {
		log.Printf("broker: %v; using in-process broker", err)
		broker = brokerAdapter.NewMemoryBroker()
	} else {
		broker = rb
	}
	broadcaster := fanout.NewBroadcaster(broker)

	// Fan-out dispatch: queued when the worker infrastructure is up,
	// synchronous otherwise. Either way the append path never fails on it.
	var dispatch fanout.Dispatcher = fanout.NewDirectDispatcher(broadcaster)
	if client, err := queueAdapter.NewAsynqClientFromEnv(); err != nil {
		log.Printf("queue: %v; publishing fan-out inline", err)
	} else {
		defer client.Close()
		dispatch = fanout.NewQueueDispatcher(client)

		srv, err := queueAdapter.NewAsynqServer()
		if err != nil {
			log.Fatalf("queue server: %v", err)
		}
		task.RegisterBroadcastMessageTask(srv, broadcaster)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("queue server stopped: %v", err)
			}
		}()
	}

	// Optional messages.created stream for downstream consumers.
	var stream sport.Writer
	if os.Getenv("KAFKA_BROKERS") != "" {
		w, err := streamAdapter.NewKafkaWriterFromEnv()
		if err != nil {
			log.Printf("stream: %v; continuing without it", err)
		} else {
			defer w.Close()
			stream = w
		}
	}

	identityRepo := identityAdapter.NewPgIdentityRepository(pool)
	var directory identity.CustomerDirectory = identityRepo
	if cache, err := cacheAdapter.NewRedisAdapter(); err != nil {
		log.Printf("cache: %v; directory lookups go straight to postgres", err)
	} else {
		defer cache.Close()
		directory = identityAdapter.NewCachedCustomerDirectory(identityRepo, cache)
	}

	gateway := realtime.NewGateway(broker)
	defer gateway.Close()

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1.RegisterRoutes(r, httpHandler.Deps{
		Messages:  repoAdapter.NewPgMessageRepository(pool),
		Directory: directory,
		Resolver:  identityRepo,
		Dispatch:  dispatch,
		Stream:    stream,
		Gateway:   gateway,
	})

	addr := os.Getenv("APP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("spachat api listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
