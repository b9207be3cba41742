package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nanasync/nanasync-api/internal/core/employee"
)

// EmployeeRepository は MongoDB を用いた社員リポジトリです。
type EmployeeRepository struct {
	coll *mongo.Collection
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{coll: db.Collection(EmployeesCollection)}
}

// Create は社員を新規作成します。ユーザー名の一意性は sparse unique index に委ねます。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	companyID, err := primitive.ObjectIDFromHex(e.CompanyID)
	if err != nil {
		return nil, employee.ErrInvalidCompanyID
	}

	doc := newEmployeeDocument(e, companyID)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, employee.ErrUsernameAlreadyExists
		}
		return nil, fmt.Errorf("insert employee: %w", err)
	}

	return doc.toEntity(), nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, employee.ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByUsername はユーザー名で社員を取得します。
func (r *EmployeeRepository) FindByUsername(ctx context.Context, username string) (*employee.Employee, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// SetConnectionState は接続状態を更新し、更新後の社員を返します。
func (r *EmployeeRepository) SetConnectionState(ctx context.Context, id string, state employee.ConnectionState) (*employee.Employee, error) {
	if !state.IsValid() {
		return nil, employee.ErrInvalidConnectionState
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, employee.ErrInvalidID
	}

	update := bson.M{"$set": bson.M{
		"connectionState": string(state),
		"updatedAt":       time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc employeeDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("update employee connection state: %w", err)
	}

	return doc.toEntity(), nil
}

// SetClockStatus は会社に所属する社員の出勤状態と最終打刻時刻を更新します。
func (r *EmployeeRepository) SetClockStatus(ctx context.Context, id, companyID string, clockedIn bool, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return employee.ErrInvalidID
	}
	companyOID, err := primitive.ObjectIDFromHex(companyID)
	if err != nil {
		return employee.ErrEmployeeNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "companyId": companyOID}, bson.M{"$set": bson.M{
		"clockedIn":      clockedIn,
		"lastClockEvent": at,
		"updatedAt":      at,
	}})
	if err != nil {
		return fmt.Errorf("update employee clock status: %w", err)
	}
	if res.MatchedCount == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// List は会社の社員を検索し、接続中を先頭にユーザー名順で返します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, int64, error) {
	companyID, err := primitive.ObjectIDFromHex(filter.CompanyID)
	if err != nil {
		return nil, 0, employee.ErrInvalidCompanyID
	}

	query := listFilter(companyID, filter.Search)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "connectionState", Value: 1}, {Key: "username", Value: 1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer cursor.Close(ctx)

	employees := make([]*employee.Employee, 0, filter.Limit)
	for cursor.Next(ctx) {
		var doc employeeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode employee: %w", err)
		}
		employees = append(employees, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate employees: %w", err)
	}

	return employees, total, nil
}

// listFilter は "active" < "inactive" の辞書順を並び替えに利用する前提で条件を組み立てます。
func listFilter(companyID primitive.ObjectID, search string) bson.M {
	query := bson.M{"companyId": companyID}
	if search == "" {
		return query
	}

	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	query["$or"] = bson.A{
		bson.M{"name": re},
		bson.M{"username": re},
		bson.M{"position": re},
		bson.M{"rank": re},
	}
	return query
}

func (r *EmployeeRepository) findOne(ctx context.Context, filter bson.M) (*employee.Employee, error) {
	var doc employeeDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return doc.toEntity(), nil
}
