package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nanasync/nanasync-api/internal/core/company"
)

// CompanyRepository は MongoDB を用いた会社リポジトリです。
type CompanyRepository struct {
	coll *mongo.Collection
}

// NewCompanyRepository は CompanyRepository を生成します。
func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{coll: db.Collection(CompaniesCollection)}
}

// Create は会社を新規作成します。
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) (*company.Company, error) {
	doc := newCompanyDocument(c)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, company.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("insert company: %w", err)
	}

	return doc.toEntity(), nil
}

// FindByID は ID で会社を取得します。
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*company.Company, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, company.ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail はメールアドレスで会社を取得します。
func (r *CompanyRepository) FindByEmail(ctx context.Context, email string) (*company.Company, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// UpdateProfile は表示名とロゴを部分更新し、更新後の会社を返します。
func (r *CompanyRepository) UpdateProfile(ctx context.Context, id string, update company.ProfileUpdate) (*company.Company, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, company.ErrInvalidID
	}

	set := bson.M{"updatedAt": update.UpdatedAt}
	if update.DisplayName != nil {
		set["displayName"] = *update.DisplayName
	}
	if update.LogoURLSet {
		if update.LogoURL != nil {
			set["logoUrl"] = *update.LogoURL
		} else {
			set["logoUrl"] = nil
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc companyDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("update company profile: %w", err)
	}

	return doc.toEntity(), nil
}

func (r *CompanyRepository) findOne(ctx context.Context, filter bson.M) (*company.Company, error) {
	var doc companyDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return doc.toEntity(), nil
}
