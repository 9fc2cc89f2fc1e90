package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// MongoDB implements db.NoSQLDatabase for calculations and ammunition profiles
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	config   *models.MongoConfig
}

const (
	collCalculations = "calculations"
	collProfiles     = "profiles"

	defaultTimeout = 5 * time.Second
)

// New creates a new MongoDB database instance
func New(config *models.MongoConfig) (*MongoDB, error) {
	if config == nil || config.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}
	return &MongoDB{
		config: config,
	}, nil
}

// URI returns the connection string without credentials
func (m *MongoDB) URI() string {
	return fmt.Sprintf("mongodb://%s:%d", m.config.Host, m.config.Port)
}

func (m *MongoDB) timeout() time.Duration {
	if m.config.Timeout <= 0 {
		return defaultTimeout
	}
	return m.config.Timeout
}

func (m *MongoDB) clientOptions() *options.ClientOptions {
	timeout := m.timeout()
	opts := options.Client().
		ApplyURI(m.URI()).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	if m.config.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   m.config.Username,
			Password:   m.config.Password,
			AuthSource: m.config.AuthSource,
		})
	}
	return opts
}

// Connect establishes connection to MongoDB. The ping is bounded by the
// configured timeout so an unreachable server fails fast.
func (m *MongoDB) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, m.clientOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return m.attach(ctx, client, createIndexes)
}

// attach runs setup against the configured database and keeps the client only
// when it succeeds.
func (m *MongoDB) attach(ctx context.Context, client *mongo.Client, setup func(context.Context, *mongo.Database) error) error {
	database := client.Database(m.config.Database)
	if err := setup(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	m.client = client
	m.database = database
	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client != nil {
		err := m.client.Disconnect(ctx)
		m.client = nil
		m.database = nil
		return err
	}
	return nil
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.client.Ping(ctx, nil)
}

// createIndexes creates the indexes used by the list endpoints
func createIndexes(ctx context.Context, database *mongo.Database) error {
	calculationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "profile_id", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
			},
		},
	}
	if _, err := database.Collection(collCalculations).Indexes().CreateMany(ctx, calculationIndexes); err != nil {
		return fmt.Errorf("failed to create calculation indexes: %w", err)
	}

	profileIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "name", Value: 1},
			},
		},
	}
	if _, err := database.Collection(collProfiles).Indexes().CreateMany(ctx, profileIndexes); err != nil {
		return fmt.Errorf("failed to create profile indexes: %w", err)
	}

	return nil
}

// CreateCalculation stores a solved trajectory
func (m *MongoDB) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	if calc.CreatedAt.IsZero() {
		calc.CreatedAt = time.Now().UTC()
	}

	_, err := m.database.Collection(collCalculations).InsertOne(ctx, calc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("calculation %s: %w", calc.ID, db.ErrDuplicate)
	}
	return err
}

// GetCalculation retrieves a calculation by ID
func (m *MongoDB) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	var calc models.Calculation
	err := m.database.Collection(collCalculations).FindOne(ctx, bson.M{"_id": id}).Decode(&calc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("calculation %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// ListCalculations lists calculations newest first
func (m *MongoDB) ListCalculations(ctx context.Context, filter shared.CalculationFilter) ([]*models.Calculation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	applyPaging(opts, filter.Limit, filter.Offset)

	cursor, err := m.database.Collection(collCalculations).Find(ctx, calculationQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	calcs := []*models.Calculation{}
	if err := cursor.All(ctx, &calcs); err != nil {
		return nil, err
	}
	return calcs, nil
}

// CountCalculations counts calculations matching the filter, ignoring paging
func (m *MongoDB) CountCalculations(ctx context.Context, filter shared.CalculationFilter) (int64, error) {
	return m.database.Collection(collCalculations).CountDocuments(ctx, calculationQuery(filter))
}

// DeleteCalculation deletes a calculation by ID
func (m *MongoDB) DeleteCalculation(ctx context.Context, id string) error {
	result, err := m.database.Collection(collCalculations).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("calculation %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// CreateProfile stores a new ammunition profile
func (m *MongoDB) CreateProfile(ctx context.Context, profile *models.AmmoProfile) error {
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := m.database.Collection(collProfiles).InsertOne(ctx, profile)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("profile %s: %w", profile.ID, db.ErrDuplicate)
	}
	return err
}

// GetProfile retrieves a profile by ID
func (m *MongoDB) GetProfile(ctx context.Context, id string) (*models.AmmoProfile, error) {
	var profile models.AmmoProfile
	err := m.database.Collection(collProfiles).FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("profile %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProfiles lists profiles ordered by name
func (m *MongoDB) ListProfiles(ctx context.Context, filter shared.ProfileFilter) ([]*models.AmmoProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	applyPaging(opts, filter.Limit, filter.Offset)

	cursor, err := m.database.Collection(collProfiles).Find(ctx, profileQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []*models.AmmoProfile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// CountProfiles counts profiles matching the filter, ignoring paging
func (m *MongoDB) CountProfiles(ctx context.Context, filter shared.ProfileFilter) (int64, error) {
	return m.database.Collection(collProfiles).CountDocuments(ctx, profileQuery(filter))
}

// UpdateProfile replaces an existing profile, keeping its creation time
func (m *MongoDB) UpdateProfile(ctx context.Context, profile *models.AmmoProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	result, err := m.database.Collection(collProfiles).ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("profile %s: %w", profile.ID, db.ErrNotFound)
	}
	return nil
}

// DeleteProfile deletes a profile by ID. Calculations made from it keep their
// copy of the inputs.
func (m *MongoDB) DeleteProfile(ctx context.Context, id string) error {
	result, err := m.database.Collection(collProfiles).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("profile %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// GetDatabase returns the underlying MongoDB database instance
func (m *MongoDB) GetDatabase() *mongo.Database {
	return m.database
}
