package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nanasync/nanasync-api/internal/core/timeclock"
)

// ClockEventRepository は fichajes コレクションへの追記を行います。
type ClockEventRepository struct {
	coll *mongo.Collection
}

// NewClockEventRepository は ClockEventRepository を生成します。
func NewClockEventRepository(db *mongo.Database) *ClockEventRepository {
	return &ClockEventRepository{coll: db.Collection(ClockEventsCollection)}
}

// Append は打刻記録を追加します。
func (r *ClockEventRepository) Append(ctx context.Context, event *timeclock.Event) (*timeclock.Event, error) {
	doc := newClockEventDocument(event)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert clock event: %w", err)
	}
	return doc.toEntity(), nil
}

// ListByEmployee は社員の打刻記録を新しい順に返します。
func (r *ClockEventRepository) ListByEmployee(ctx context.Context, filter timeclock.HistoryFilter) ([]*timeclock.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, historyFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list clock events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []clockEventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clock events: %w", err)
	}

	events := make([]*timeclock.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.toEntity())
	}
	return events, nil
}

func historyFilter(filter timeclock.HistoryFilter) bson.M {
	query := bson.M{"employeeId": filter.EmployeeID}
	if filter.CompanyID != "" {
		query["companyId"] = filter.CompanyID
	}
	return query
}
