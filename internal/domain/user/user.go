package user

import (
	"errors"
	"time"

	"github.com/geocoder89/assethub/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

var ErrNotFound = errors.New("user not found")

// User is a profile keyed by email. An empty Role means the default, non-admin role.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	DOB       string             `bson:"dob,omitempty" json:"dob,omitempty"`
	PhotoURL  string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role      string             `bson:"role,omitempty" json:"role,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UpsertProfileRequest struct {
	Name     string `json:"name" binding:"omitempty,max=120"`
	DOB      string `json:"dob" binding:"omitempty,max=40"`
	PhotoURL string `json:"photoURL" binding:"omitempty,max=2048"`
	Role     string `json:"role" binding:"omitempty,eq=employee"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"omitempty,oneof=employee admin"`
}

type ListFilter struct {
	Role  *string
	Limit int
	After *utils.PageCursor
}
