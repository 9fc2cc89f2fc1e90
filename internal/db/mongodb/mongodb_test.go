package mongodb

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

func TestNewRequiresDatabaseName(t *testing.T) {
	if _, err := New(&models.MongoConfig{Host: "localhost", Port: 27017}); err == nil {
		t.Fatalf("expected error for empty database name")
	}
}

func TestClientOptions(t *testing.T) {
	m, err := New(&models.MongoConfig{Database: "bullet_calculator_db", Host: "db.internal", Port: 27018})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := m.URI(); got != "mongodb://db.internal:27018" {
		t.Fatalf("URI = %q", got)
	}

	opts := m.clientOptions()
	if opts.Auth != nil {
		t.Fatalf("credentials must not be set without a username")
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != defaultTimeout {
		t.Fatalf("expected default server selection timeout, got %v", opts.ServerSelectionTimeout)
	}

	m.config.Username = "shooter"
	m.config.Password = "secret"
	m.config.AuthSource = "admin"
	m.config.Timeout = 2 * time.Second

	opts = m.clientOptions()
	if opts.Auth == nil {
		t.Fatalf("expected credentials when a username is configured")
	}
	if opts.Auth.Username != "shooter" || opts.Auth.Password != "secret" || opts.Auth.AuthSource != "admin" {
		t.Fatalf("unexpected credentials: %+v", opts.Auth)
	}
	if *opts.ConnectTimeout != 2*time.Second {
		t.Fatalf("connect timeout = %v", *opts.ConnectTimeout)
	}
}

func TestAttachReleasesClientWhenSetupFails(t *testing.T) {
	m, err := New(&models.MongoConfig{Database: "bullet_calculator_db", Host: "127.0.0.1", Port: 1, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()
	client, err := mongo.Connect(ctx, m.clientOptions())
	if err != nil {
		t.Fatalf("mongo.Connect returned error: %v", err)
	}

	setupErr := errors.New("not authorized to create indexes")
	err = m.attach(ctx, client, func(context.Context, *mongo.Database) error { return setupErr })
	if !errors.Is(err, setupErr) {
		t.Fatalf("attach error = %v, want wrapped setup error", err)
	}
	if m.client != nil || m.database != nil {
		t.Fatalf("failed attach must not keep the client")
	}
	if err := client.Disconnect(ctx); !errors.Is(err, mongo.ErrClientDisconnected) {
		t.Fatalf("client should already be disconnected, got %v", err)
	}
	if err := m.Ping(ctx); err == nil {
		t.Fatalf("Ping should report not connected")
	}
}

func TestCalculationQuery(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	query := calculationQuery(shared.CalculationFilter{UserID: "u1", ProfileID: "p1", StartTime: &start})

	if query["user_id"] != "u1" || query["profile_id"] != "p1" {
		t.Fatalf("unexpected query: %v", query)
	}
	created, ok := query["created_at"].(bson.M)
	if !ok || created["$gte"] != start {
		t.Fatalf("unexpected time range: %v", query["created_at"])
	}
	if _, ok := created["$lte"]; ok {
		t.Fatalf("open-ended range should not set $lte")
	}

	if empty := calculationQuery(shared.CalculationFilter{}); len(empty) != 0 {
		t.Fatalf("empty filter should match everything, got %v", empty)
	}
}

func TestProfileQueryEscapesSearch(t *testing.T) {
	query := profileQuery(shared.ProfileFilter{Search: "6.5 (match)", Caliber: ".308"})

	name, ok := query["name"].(bson.M)
	if !ok {
		t.Fatalf("expected name regex, got %v", query)
	}
	if name["$regex"] != `6\.5 \(match\)` || name["$options"] != "i" {
		t.Fatalf("unexpected name regex: %v", name)
	}

	caliber := query["caliber"].(bson.M)
	if caliber["$regex"] != `^\.308$` {
		t.Fatalf("unexpected caliber regex: %v", caliber)
	}
}

func TestConnectUnreachableFailsFast(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.INFO, &buf)
	t.Cleanup(func() { logger.Init(logger.INFO, nil) })

	m, err := New(&models.MongoConfig{
		Database: "bullet_calculator_db",
		Host:     "127.0.0.1",
		Port:     1,
		Timeout:  200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	started := time.Now()
	if db.ConnectBestEffort(context.Background(), m, "bullet_calculator_db") {
		t.Fatalf("expected connection to an unreachable server to fail")
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("connect should respect the configured timeout, took %v", elapsed)
	}

	_ = logger.Sync()
	if !strings.Contains(buf.String(), "MongoDB connection failed") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
	if err := m.Ping(context.Background()); err == nil {
		t.Fatalf("failed connect must leave the store disconnected")
	}
}
