//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/branch-workshop/service-booking/internal/application"
	"github.com/branch-workshop/service-booking/internal/common/config"
	"github.com/branch-workshop/service-booking/internal/common/database"
	"github.com/branch-workshop/service-booking/internal/common/kafka"
	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/directory"
	bookingEvents "github.com/branch-workshop/service-booking/internal/events"
	"github.com/branch-workshop/service-booking/internal/repository"
)

const (
	advisorID int64 = 7
	bayA      int64 = 1
	bayB      int64 = 2
	bayC      int64 = 3
)

// setupPostgres starts a PostgreSQL container, applies the migrations and seeds the directory tables.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := config.DatabaseConfig{
		Host:         pgHost,
		Port:         pgPort.Port(),
		User:         "test",
		Password:     "test",
		DBName:       "test_booking",
		SSLMode:      "disable",
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	}
	log := zap.NewNop()

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dbCfg, log)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dbCfg.DatabaseURL(), "migrations", log))
	seedDirectory(t, db)
	return db
}

// seedDirectory inserts the bays and advisor the scenarios refer to.
func seedDirectory(t *testing.T, db *gorm.DB) {
	t.Helper()
	bays := []repository.BayModel{
		{ID: bayA, BayName: "Bay A", BayNumber: "A1", Status: "ACTIVE"},
		{ID: bayB, BayName: "Bay B", BayNumber: "B1", Status: "ACTIVE"},
		{ID: bayC, BayName: "Bay C", BayNumber: "C1", Status: "ACTIVE"},
	}
	require.NoError(t, db.Create(&bays).Error, "failed to seed bays")
	require.NoError(t, db.Create(&repository.ServiceAdvisorModel{
		ID: advisorID, Name: "Aina", Status: "ACTIVE",
	}).Error, "failed to seed advisor")
}

// setupKafka starts a Kafka container and pre-creates the service topics.
func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, bookingEvents.TopicBookingEvents, bookingEvents.TopicDirectoryEvents)
	return brokers
}

// setupRedis starts a Redis container and returns a connected cache.
func setupRedis(t *testing.T) *directory.RedisCache {
	t.Helper()
	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cache, err := directory.NewRedisCache(config.RedisConfig{
		Addr:    net.JoinHostPort(host, port.Port()),
		Enabled: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

// bookingStack holds wired-up booking service components.
type bookingStack struct {
	Service   *application.BookingService
	Directory *directory.Cached
}

type stackOptions struct {
	brokers        []string
	cache          directory.Cache
	ledgerPageSize int
}

// setupBookingStack wires the service the same way the server does.
func setupBookingStack(t *testing.T, db *gorm.DB, opts stackOptions) *bookingStack {
	t.Helper()
	logger := zap.NewNop()

	dir := directory.NewCached(repository.NewGormDirectory(db), opts.cache, time.Minute, 2*time.Second, logger)

	var publisher application.EventPublisher
	if len(opts.brokers) > 0 {
		producer := kafka.NewProducer(opts.brokers, logger)
		t.Cleanup(func() { _ = producer.Close() })
		publisher = producer
	}

	svc := application.NewBookingService(
		repository.NewGormBookingRepository(db),
		repository.NewGormProcessLedger(db).WithPageSize(opts.ledgerPageSize),
		repository.NewGormUnitOfWork(db),
		dir,
		publisher,
		logger,
	)
	return &bookingStack{Service: svc, Directory: dir}
}

// checkIn creates a QUEUING booking on bay A.
func checkIn(t *testing.T, svc *application.BookingService, registration string) *application.BookingDTO {
	t.Helper()
	created, err := svc.CreateBooking(context.Background(), application.CreateBookingRequest{
		VehicleRegistration: registration,
		CheckinDate:         bookingDomain.NewDate(2025, time.March, 10),
		PromiseDate:         bookingDomain.NewDate(2025, time.March, 14),
		ServiceAdvisorID:    advisorID,
		BayID:               bayA,
		JobType:             "MEDIUM",
	})
	require.NoError(t, err, "failed to create booking")
	return created
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func datePtr(y int, m time.Month, d int) *bookingDomain.Date {
	v := bookingDomain.NewDate(y, m, d)
	return &v
}
func timePtr(t *testing.T, s string) *bookingDomain.TimeOfDay {
	t.Helper()
	v, err := bookingDomain.ParseTimeOfDay(s)
	require.NoError(t, err)
	return &v
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType, key string, data interface{}) {
	t.Helper()
	producer := kafka.NewProducer(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, key, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
