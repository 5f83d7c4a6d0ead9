// Package mongo stores timesheets and projects in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	defaultConnectTimeout = 10 * time.Second
	// defaultTimeout bounds every repository call.
	defaultTimeout = 10 * time.Second
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Database is a connected MongoDB database holding the timesheet and project
// collections.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects, pings the primary and creates missing indexes.
func Open(ctx context.Context, cfg Config) (*Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("timesheet-api").
		SetServerSelectionTimeout(timeout).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	d := &Database{client: client, db: client.Database(cfg.Database)}
	if err := d.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return d, nil
}

func (d *Database) ensureIndexes(ctx context.Context) error {
	if err := d.Timesheets().EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("timesheet indexes: %w", err)
	}
	if err := d.Projects().EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("project indexes: %w", err)
	}
	return nil
}

func (d *Database) Timesheets() *TimesheetRepository { return NewTimesheetRepository(d.db) }
func (d *Database) Projects() *ProjectRepository     { return NewProjectRepository(d.db) }

func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
