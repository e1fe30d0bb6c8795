package product

import (
	"errors"
	"time"

	"github.com/geocoder89/assethub/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email           string             `bson:"email" json:"email"`
	ProductName     string             `bson:"productName" json:"productName"`
	ProductType     string             `bson:"productType" json:"productType"`
	ProductQuantity int                `bson:"productQuantity" json:"productQuantity"`
	Timestamp       time.Time          `bson:"timestamp" json:"timestamp"`
}

// a full update payload, the three fields are always replaced together.
type UpsertRequest struct {
	ProductName     string `json:"productName" binding:"required,min=2,max=120"`
	ProductType     string `json:"productType" binding:"required,max=60"`
	ProductQuantity int    `json:"productQuantity" binding:"gte=0,max=1000000"`
}

func New(ownerEmail string, req UpsertRequest, now time.Time) Product {
	return Product{
		Email:           ownerEmail,
		ProductName:     req.ProductName,
		ProductType:     req.ProductType,
		ProductQuantity: req.ProductQuantity,
		Timestamp:       now.UTC(),
	}
}

type ListFilter struct {
	Type  *string
	Query *string
	Limit int
	After *utils.PageCursor
}
