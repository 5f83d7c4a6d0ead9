package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

const collectionProjects = "projects"

// Members and tasks are embedded in the project document.
type projectDoc struct {
	ID               string      `bson:"_id"`
	Title            string      `bson:"title"`
	ClientName       string      `bson:"client_name,omitempty"`
	BillableHours    int         `bson:"billable_hours"`
	NonBillableHours int         `bson:"non_billable_hours"`
	StartDate        time.Time   `bson:"start_date"`
	EndDate          time.Time   `bson:"end_date"`
	Members          []memberDoc `bson:"members"`
	Tasks            []taskDoc   `bson:"tasks"`
	CreatedBy        string      `bson:"created_by"`
	CreatedAt        time.Time   `bson:"created_at"`
}

type memberDoc struct {
	ID         string `bson:"id"`
	UserID     string `bson:"user_id"`
	IsBillable bool   `bson:"is_billable"`
	IsRemoved  bool   `bson:"is_removed"`
}

type taskDoc struct {
	ID        string    `bson:"id"`
	MemberID  string    `bson:"member_id,omitempty"`
	Title     string    `bson:"title"`
	StartDate time.Time `bson:"start_date,omitempty"`
	EndDate   time.Time `bson:"end_date,omitempty"`
	IsRemoved bool      `bson:"is_removed"`
}

func toProjectDoc(p *domain.Project) projectDoc {
	doc := projectDoc{
		ID:               p.ID,
		Title:            p.Title,
		ClientName:       p.ClientName,
		BillableHours:    p.BillableHours,
		NonBillableHours: p.NonBillableHours,
		StartDate:        domain.DateOf(p.StartDate),
		EndDate:          domain.DateOf(p.EndDate),
		Members:          make([]memberDoc, 0, len(p.Members)),
		Tasks:            make([]taskDoc, 0, len(p.Tasks)),
		CreatedBy:        p.CreatedBy,
		CreatedAt:        p.CreatedAt.UTC(),
	}
	for _, m := range p.Members {
		doc.Members = append(doc.Members, memberDoc{ID: m.ID, UserID: m.UserID, IsBillable: m.IsBillable, IsRemoved: m.IsRemoved})
	}
	for _, t := range p.Tasks {
		doc.Tasks = append(doc.Tasks, taskDoc{
			ID:        t.ID,
			MemberID:  t.MemberID,
			Title:     t.Title,
			StartDate: t.StartDate,
			EndDate:   t.EndDate,
			IsRemoved: t.IsRemoved,
		})
	}
	return doc
}

func (d projectDoc) project() domain.Project {
	p := domain.Project{
		ID:               d.ID,
		Title:            d.Title,
		ClientName:       d.ClientName,
		BillableHours:    d.BillableHours,
		NonBillableHours: d.NonBillableHours,
		StartDate:        d.StartDate.UTC(),
		EndDate:          d.EndDate.UTC(),
		CreatedBy:        d.CreatedBy,
		CreatedAt:        d.CreatedAt.UTC(),
	}
	for _, m := range d.Members {
		p.Members = append(p.Members, domain.Member{ID: m.ID, ProjectID: d.ID, UserID: m.UserID, IsBillable: m.IsBillable, IsRemoved: m.IsRemoved})
	}
	for _, t := range d.Tasks {
		task := domain.Task{ID: t.ID, ProjectID: d.ID, MemberID: t.MemberID, Title: t.Title, IsRemoved: t.IsRemoved}
		if !t.StartDate.IsZero() {
			task.StartDate = t.StartDate.UTC()
		}
		if !t.EndDate.IsZero() {
			task.EndDate = t.EndDate.UTC()
		}
		p.Tasks = append(p.Tasks, task)
	}
	return p
}

// ProjectRepository implements ports.ProjectRepository using MongoDB.
type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(collectionProjects)}
}

func (r *ProjectRepository) GetActiveProjects(ctx context.Context, userID string, start, end time.Time) ([]domain.Project, error) {
	return r.find(ctx, bson.M{
		"members":    bson.M{"$elemMatch": bson.M{"user_id": userID, "is_removed": false}},
		"start_date": bson.M{"$lte": domain.DateOf(end)},
		"end_date":   bson.M{"$gte": domain.DateOf(start)},
	})
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"created_by": userID},
		bson.M{"members": bson.M{"$elemMatch": bson.M{"user_id": userID, "is_removed": false}}},
	}})
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectDoc
	err := r.col.FindOne(ctx, bson.M{"_id": projectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	p := doc.project()
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toProjectDoc(p))
	return err
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, toProjectDoc(p))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) find(ctx context.Context, filter bson.M) ([]domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []projectDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(docs))
	for _, d := range docs {
		projects = append(projects, d.project())
	}
	return projects, nil
}

// EnsureIndexes creates necessary indexes on the projects collection.
func (r *ProjectRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "members.user_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "start_date", Value: 1}, {Key: "end_date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
