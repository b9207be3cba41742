package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes は起動時に必要なインデックスを作成します。既存のインデックスはそのまま残ります。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			collection: CompaniesCollection,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("email_unique").SetUnique(true),
			}},
		},
		{
			collection: EmployeesCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "username", Value: 1}},
					Options: options.Index().SetName("username_unique").SetUnique(true).SetSparse(true),
				},
				{
					Keys:    bson.D{{Key: "companyId", Value: 1}, {Key: "connectionState", Value: 1}, {Key: "username", Value: 1}},
					Options: options.Index().SetName("company_listing"),
				},
			},
		},
		{
			collection: ClockEventsCollection,
			models: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "employeeId", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("employee_timeline"),
			}},
		},
	}

	for _, spec := range specs {
		if _, err := db.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", spec.collection, err)
		}
	}
	return nil
}
