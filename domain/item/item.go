package item

import (
	"fmt"
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending Status = "pending" // metadata not ingested yet
	StatusSuccess Status = "success" // fully ingested, servable
	StatusFailed  Status = "failed"  // ingestion gave up
)

type Attribute struct {
	TraitType string `json:"trait_type" bson:"trait_type"`
	Value     string `json:"value" bson:"value"`
}

type Attributes = []Attribute

type Id struct {
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
}

func (i *Id) ToString() string {
	return fmt.Sprintf("%s_%s", i.ContractAddress, i.TokenId)
}

type Item struct {
	ObjectId        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ContractAddress domain.Address     `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId     `json:"tokenId" bson:"tokenID"`
	Name            string             `json:"name" bson:"name"`
	ImageUrl        string             `json:"imageUrl" bson:"imageURL"`
	ThumbnailPath   string             `json:"thumbnailPath" bson:"thumbnailPath"`
	AnimationUrl    string             `json:"animationUrl" bson:"animationUrl"`
	Owner           domain.Address     `json:"owner" bson:"owner"`
	Supply          int32              `json:"supply" bson:"supply"`
	Attributes      Attributes         `json:"attributes" bson:"attributes"`
	Status          Status             `json:"-" bson:"status"`
	CreatedAt       time.Time          `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt,omitempty" bson:"updatedAt"`

	// denormalized market hints maintained by the ingestion pipeline,
	// used by the plain read path only
	HasActiveListings bool       `json:"-" bson:"hasActiveListings"`
	ListingEndsAt     *time.Time `json:"listingEndsAt,omitempty" bson:"listingEndsAt"`
	AuctionEndsAt     *time.Time `json:"auctionEndsAt,omitempty" bson:"auctionEndsAt"`
}

func (i *Item) ToId() *Id {
	return &Id{
		ContractAddress: i.ContractAddress,
		TokenId:         i.TokenId,
	}
}

// AttributeFilter is used to filter the item list, values of the same
// trait type are OR-ed, distinct trait types are AND-ed
type AttributeFilter struct {
	Name   string   `json:"name" query:"name"`
	Values []string `json:"values" query:"values"`
}

type FindAllOptions struct {
	SortBy            *string
	SortDir           *domain.SortDir
	ContractAddresses []domain.Address
	Statuses          []Status
	Search            *string
	Attributes        []AttributeFilter
	ListedOnly        *bool
	AuctionedOnly     *bool
	ObjectIdGT        *primitive.ObjectID
	Offset            *int32
	Limit             *int32
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

func WithSort(sortby string, sortdir domain.SortDir) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.SortBy = &sortby
		options.SortDir = &sortdir
		return nil
	}
}

func WithContractAddresses(addresses []domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		for _, address := range addresses {
			options.ContractAddresses = append(options.ContractAddresses, address.ToLower())
		}
		return nil
	}
}

func WithStatuses(statuses []Status) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Statuses = statuses
		return nil
	}
}

func WithSearch(search string) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Search = &search
		return nil
	}
}

func WithAttributeFilters(attributes []AttributeFilter) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Attributes = attributes
		return nil
	}
}

func WithListedOnly(listed bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.ListedOnly = &listed
		return nil
	}
}

func WithAuctionedOnly(auctioned bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.AuctionedOnly = &auctioned
		return nil
	}
}

func WithObjectIdGT(objectId primitive.ObjectID) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.ObjectIdGT = &objectId
		return nil
	}
}

func WithPagination(offset int32, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

// AttributeCount is one (trait, value) bucket of a collection
type AttributeCount struct {
	TraitType string `bson:"traitType"`
	Value     string `bson:"value"`
	Count     int64  `bson:"count"`
}

type Repo interface {
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Item, error)
	Count(c ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	FindOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*Item, error)
	// Rank executes the annotated, keyset paged read described by opts
	Rank(c ctx.Ctx, opts RankOptions) ([]*RankedItem, error)
	// CountAttributes buckets successful items by (trait, value)
	CountAttributes(c ctx.Ctx, contract domain.Address) ([]*AttributeCount, error)
}
