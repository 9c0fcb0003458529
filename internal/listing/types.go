// Package listing holds the rental listing domain types shared by the
// intake flows and the draft store.
package listing

import "time"

type UnitType string

const (
	UnitType1RK        UnitType = "1rk"
	UnitType1BHK       UnitType = "1bhk"
	UnitType2BHK       UnitType = "2bhk"
	UnitType3BHK       UnitType = "3bhk"
	UnitTypeSingleRoom UnitType = "single_room"
	UnitTypeFlatmates  UnitType = "flatmates"
	UnitTypePG         UnitType = "pg"
	UnitTypeHostel     UnitType = "hostel"
)

// UnitTypes lists unit types in display order. The first entry is the
// default for listings created from free text.
var UnitTypes = []UnitType{
	UnitType1RK, UnitType1BHK, UnitType2BHK, UnitType3BHK,
	UnitTypeSingleRoom, UnitTypeFlatmates, UnitTypePG, UnitTypeHostel,
}

type Audience string

const (
	AudienceFamily    Audience = "family"
	AudienceBachelors Audience = "bachelors"
	AudienceCouples   Audience = "couples"
	AudienceAnyone    Audience = "anyone"
)

// Audiences lists audiences in display order. The first entry is the
// default for listings created from free text.
var Audiences = []Audience{AudienceFamily, AudienceBachelors, AudienceCouples, AudienceAnyone}

type FurnishedType string

const (
	Unfurnished   FurnishedType = "unfurnished"
	SemiFurnished FurnishedType = "semi"
	Furnished     FurnishedType = "furnished"
)

var FurnishedTypes = []FurnishedType{Unfurnished, SemiFurnished, Furnished}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
)

// MaxTitleLength is the column width of listing titles.
const MaxTitleLength = 120

// ParseUnitType returns the unit type for s and whether it is known.
func ParseUnitType(s string) (UnitType, bool) {
	for _, u := range UnitTypes {
		if string(u) == s {
			return u, true
		}
	}
	return "", false
}

// ParseAudience returns the audience for s and whether it is known.
func ParseAudience(s string) (Audience, bool) {
	for _, a := range Audiences {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// ParseFurnishedType returns the furnishing for s and whether it is known.
func ParseFurnishedType(s string) (FurnishedType, bool) {
	for _, f := range FurnishedTypes {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// User is a Telegram user known to the store.
type User struct {
	ID          string
	TgUserID    int64
	TgUsername  string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Rules are the occupancy rules of a listing.
type Rules struct {
	Restrictions     bool
	CouplesAllowed   bool
	BachelorsAllowed bool
	PetsAllowed      bool
	ParkingAvailable bool
}

// DefaultRules are the rules a new listing starts with.
func DefaultRules() Rules {
	return Rules{
		Restrictions:     true,
		CouplesAllowed:   false,
		BachelorsAllowed: true,
		PetsAllowed:      true,
		ParkingAvailable: true,
	}
}

// Listing is a stored rental listing.
type Listing struct {
	ID          string
	OwnerUserID string
	Audience    Audience
	UnitType    UnitType
	Title       string
	Description string
	AreaText    string
	Price       int
	Deposit     *int
	Furnished   FurnishedType
	Rules       Rules
	Tags        []string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRequest is everything needed to insert a new draft listing.
type CreateRequest struct {
	OwnerUserID string
	Audience    Audience
	UnitType    UnitType
	Title       string
	Description string
	AreaText    string
	Price       int
	Deposit     *int
	Furnished   FurnishedType
	Rules       Rules
	Tags        []string
}

// MediaItem is one uploaded photo or document, independent of transport.
// Optional fields are zero when unknown.
type MediaItem struct {
	Kind            MediaKind
	FileID          string
	FileUniqueID    string
	FileName        string
	MimeType        string
	FileSize        int
	Width           int
	Height          int
	SourceMessageID int
	Caption         string
}

// Media is a stored media row.
type Media struct {
	ID           string
	ListingID    string
	Kind         MediaKind
	FileID       string
	FileUniqueID string
	FileName     string
	MimeType     string
	FileSize     int
	Width        int
	Height       int
	CreatedAt    time.Time
}

// ListingWithMedia is a listing joined with its owner and its media, oldest
// media first.
type ListingWithMedia struct {
	Listing
	OwnerUsername    string
	OwnerDisplayName string
	Media            []Media
}
