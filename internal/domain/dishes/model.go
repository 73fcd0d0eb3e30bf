package dishes

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SortRecent    = "recent"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

type Dish struct {
	ID            string                      `gorm:"type:uuid;primaryKey"`
	OwnerID       string                      `gorm:"type:uuid;not null;index"`
	Title         string                      `gorm:"not null"`
	Description   string                      `gorm:"not null;default:''"`
	Price         float64                     `gorm:"type:numeric(10,2);not null"`
	Portions      int                         `gorm:"not null"`
	Ingredients   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Images        datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Available     bool                        `gorm:"not null;default:true"`
	AvailableFrom *time.Time                  `gorm:"type:timestamptz"`
	AvailableTo   *time.Time                  `gorm:"type:timestamptz"`
	LikesCount    int                         `gorm:"not null;default:0"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
}

type Like struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;not null"`
	DishID    string    `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type DishView struct {
	Dish
	AvailablePortions int
	OwnerName         string
	BuildingID        *string
	BuildingName      *string
	LikedByMe         bool
}

type DishPage struct {
	Items      []DishView
	Total      int64
	Page       int
	TotalPages int
	PageSize   int
}

type ListFilter struct {
	ViewerID   string
	Query      string
	BuildingID *string
	Available  *bool
	MinPrice   *float64
	MaxPrice   *float64
	PickupDate *time.Time
	Sort       string
	Page       int
}

type CreateDishInput struct {
	OwnerID       string
	Title         string
	Description   string
	Price         float64
	Portions      int
	Ingredients   []string
	Images        []string
	Available     *bool
	AvailableFrom *time.Time
	AvailableTo   *time.Time
}

// UpdateDishInput is a partial update; nil fields are left unchanged.
type UpdateDishInput struct {
	Title         *string
	Description   *string
	Price         *float64
	Portions      *int
	Ingredients   *[]string
	Images        *[]string
	Available     *bool
	AvailableFrom *time.Time
	AvailableTo   *time.Time
	ClearWindow   bool
}

type LikeResult struct {
	Liked      bool
	LikesCount int
}
