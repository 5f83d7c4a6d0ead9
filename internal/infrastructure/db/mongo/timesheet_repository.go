package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

const collectionTimesheets = "timesheets"

type timesheetDoc struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"user_id"`
	TaskID          string     `bson:"task_id"`
	TaskTitle       string     `bson:"task_title"`
	ProjectID       string     `bson:"project_id"`
	ProjectTitle    string     `bson:"project_title"`
	Date            time.Time  `bson:"date"`
	Hours           float64    `bson:"hours"`
	Status          int        `bson:"status"`
	ManagerComments string     `bson:"manager_comments,omitempty"`
	SubmittedOn     *time.Time `bson:"submitted_on,omitempty"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func toTimesheetDoc(e domain.TimesheetEntry) timesheetDoc {
	return timesheetDoc{
		ID:              e.ID,
		UserID:          e.UserID,
		TaskID:          e.TaskID,
		TaskTitle:       e.TaskTitle,
		ProjectID:       e.ProjectID,
		ProjectTitle:    e.ProjectTitle,
		Date:            domain.DateOf(e.Date),
		Hours:           e.Hours,
		Status:          int(e.Status),
		ManagerComments: e.ManagerComments,
		SubmittedOn:     e.SubmittedOn,
		CreatedAt:       e.CreatedAt.UTC(),
		UpdatedAt:       e.UpdatedAt.UTC(),
	}
}

func (d timesheetDoc) entry() domain.TimesheetEntry {
	return domain.TimesheetEntry{
		ID:              d.ID,
		UserID:          d.UserID,
		TaskID:          d.TaskID,
		TaskTitle:       d.TaskTitle,
		ProjectID:       d.ProjectID,
		ProjectTitle:    d.ProjectTitle,
		Date:            d.Date.UTC(),
		Hours:           d.Hours,
		Status:          domain.TimesheetStatus(d.Status),
		ManagerComments: d.ManagerComments,
		SubmittedOn:     d.SubmittedOn,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

// TimesheetRepository implements ports.TimesheetRepository using MongoDB.
type TimesheetRepository struct {
	col *mongo.Collection
}

func NewTimesheetRepository(db *mongo.Database) *TimesheetRepository {
	return &TimesheetRepository{col: db.Collection(collectionTimesheets)}
}

func (r *TimesheetRepository) GetTimesheets(ctx context.Context, userID string, start, end time.Time) ([]domain.TimesheetEntry, error) {
	return r.find(ctx, bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": domain.DateOf(start), "$lte": domain.DateOf(end)},
	})
}

func (r *TimesheetRepository) GetTimesheetsOfUsersByStatus(ctx context.Context, userIDs []string, status domain.TimesheetStatus) (map[string][]domain.TimesheetEntry, error) {
	grouped := make(map[string][]domain.TimesheetEntry)
	if len(userIDs) == 0 {
		return grouped, nil
	}
	entries, err := r.find(ctx, bson.M{
		"user_id": bson.M{"$in": userIDs},
		"status":  int(status),
	})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		grouped[e.UserID] = append(grouped[e.UserID], e)
	}
	return grouped, nil
}

func (r *TimesheetRepository) GetSubmittedTimesheetsOfUsers(ctx context.Context, userIDs []string) ([]domain.TimesheetEntry, error) {
	if len(userIDs) == 0 {
		return []domain.TimesheetEntry{}, nil
	}
	return r.find(ctx, bson.M{
		"user_id": bson.M{"$in": userIDs},
		"status":  int(domain.StatusSubmitted),
	})
}

func (r *TimesheetRepository) GetTimesheetsOfProject(ctx context.Context, projectID string, start, end time.Time) ([]domain.TimesheetEntry, error) {
	return r.find(ctx, bson.M{
		"project_id": projectID,
		"date":       bson.M{"$gte": domain.DateOf(start), "$lte": domain.DateOf(end)},
	})
}

func (r *TimesheetRepository) find(ctx context.Context, filter bson.M) ([]domain.TimesheetEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "task_title", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find timesheets: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []timesheetDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode timesheets: %w", err)
	}

	entries := make([]domain.TimesheetEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

func (r *TimesheetRepository) NewBatch() ports.TimesheetBatch {
	return &timesheetBatch{col: r.col}
}

// EnsureIndexes creates necessary indexes on the timesheets collection.
// (user_id, task_id, date) is unique.
func (r *TimesheetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "task_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// timesheetBatch stages writes and sends them as one ordered BulkWrite.
type timesheetBatch struct {
	col    *mongo.Collection
	models []mongo.WriteModel
}

func (b *timesheetBatch) Add(entry domain.TimesheetEntry) {
	b.models = append(b.models, mongo.NewInsertOneModel().SetDocument(toTimesheetDoc(entry)))
}

func (b *timesheetBatch) Update(entries []domain.TimesheetEntry) {
	for _, e := range entries {
		set := bson.M{
			"hours":            e.Hours,
			"status":           int(e.Status),
			"manager_comments": e.ManagerComments,
			"updated_at":       e.UpdatedAt.UTC(),
		}
		if e.SubmittedOn != nil {
			set["submitted_on"] = e.SubmittedOn.UTC()
		}
		b.models = append(b.models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetUpdate(bson.M{"$set": set}))
	}
}

// Commit reports inserted plus modified documents. Updates that leave a
// document unchanged are not counted.
func (b *timesheetBatch) Commit(ctx context.Context) (int64, error) {
	if len(b.models) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := b.col.BulkWrite(ctx, b.models, options.BulkWrite().SetOrdered(true))
	b.models = nil
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("bulk write: %w", domain.ErrDuplicateTimesheet)
		}
		return 0, fmt.Errorf("bulk write: %w", err)
	}
	return res.InsertedCount + res.ModifiedCount + res.UpsertedCount, nil
}
