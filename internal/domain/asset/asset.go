package asset

import (
	"errors"
	"time"

	"github.com/geocoder89/assethub/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound          = errors.New("asset request not found")
	ErrNotOwner          = errors.New("asset request belongs to another user")
	ErrInvalidTransition = errors.New("asset request cannot move to that status")
)

// Request is an employee's request for a company asset. Status changes
// overwrite the document in place, no history is kept.
type Request struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email          string             `bson:"email" json:"email"`
	AssetName      string             `bson:"assetName" json:"assetName"`
	AssetPrice     float64            `bson:"assetPrice" json:"assetPrice"`
	AssetType      string             `bson:"assetType" json:"assetType"`
	AssetImage     string             `bson:"assetImage,omitempty" json:"assetImage,omitempty"`
	WhyNeeded      string             `bson:"whyNeeded,omitempty" json:"whyNeeded,omitempty"`
	AdditionalInfo string             `bson:"additionalInfo,omitempty" json:"additionalInfo,omitempty"`
	Status         Status             `bson:"status" json:"status"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	ApprovalDate   *time.Time         `bson:"approvalDate,omitempty" json:"approvalDate,omitempty"`
}

type CreateRequest struct {
	Email          string  `json:"email" binding:"omitempty,email"`
	AssetName      string  `json:"assetName" binding:"required,min=2,max=120"`
	AssetPrice     float64 `json:"assetPrice" binding:"gte=0"`
	AssetType      string  `json:"assetType" binding:"required,max=60"`
	AssetImage     string  `json:"assetImage" binding:"omitempty,max=2048"`
	WhyNeeded      string  `json:"whyNeeded" binding:"omitempty,max=1000"`
	AdditionalInfo string  `json:"additionalInfo" binding:"omitempty,max=1000"`
}

// EditRequest is the full set of owner-editable fields. An edit replaces all
// of them and sends the request back to pending.
type EditRequest struct {
	AssetName      string  `json:"assetName" binding:"required,min=2,max=120"`
	AssetPrice     float64 `json:"assetPrice" binding:"gte=0"`
	AssetType      string  `json:"assetType" binding:"required,max=60"`
	AssetImage     string  `json:"assetImage" binding:"omitempty,max=2048"`
	WhyNeeded      string  `json:"whyNeeded" binding:"omitempty,max=1000"`
	AdditionalInfo string  `json:"additionalInfo" binding:"omitempty,max=1000"`
}

func NewRequest(email string, req CreateRequest, now time.Time) Request {
	return Request{
		Email:          email,
		AssetName:      req.AssetName,
		AssetPrice:     req.AssetPrice,
		AssetType:      req.AssetType,
		AssetImage:     req.AssetImage,
		WhyNeeded:      req.WhyNeeded,
		AdditionalInfo: req.AdditionalInfo,
		Status:         StatusPending,
		Timestamp:      now.UTC(),
	}
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Email  *string
	Status *Status
	Type   *string
	Query  *string
	Limit  int
	After  *utils.PageCursor
}
