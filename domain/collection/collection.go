package collection

import (
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
)

type Collection struct {
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress" param:"contract"`
	CollectionName  string         `json:"collectionName" bson:"collectionName"`
	Description     string         `json:"description" bson:"description"`
	LogoImageUrl    string         `json:"logoImageUrl" bson:"logoImageUrl"`
	SiteUrl         string         `json:"siteUrl" bson:"siteUrl"`
	// false for unreviewed collections
	Status bool `json:"-" bson:"status"`
	// total supply, updated by the ingestion pipeline
	Supply    int64     `json:"supply" bson:"supply"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type FindAllOptions struct {
	Status *bool
	Limit  *int32
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func WithStatus(status bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Status = &status
		return nil
	}
}

func WithLimit(limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Limit = &limit
		return nil
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, contract domain.Address) (*Collection, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Collection, error)
	Upsert(c ctx.Ctx, collection *Collection) error
}
