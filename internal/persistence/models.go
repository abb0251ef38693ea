package persistence

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

const (
	// BookingConfirmed is the initial state of every successfully created booking.
	BookingConfirmed BookingStatus = "CONFIRMED"
	// BookingCancelled is a terminal state reached through an explicit cancel.
	BookingCancelled BookingStatus = "CANCELLED"
	// BookingCompleted is a terminal state applied by reconciliation once a booking ends.
	BookingCompleted BookingStatus = "COMPLETED"
)

// RoomStatus reflects the derived occupancy of a room. The booking table is the
// source of truth; this value is a cache maintained by reconciliation.
type RoomStatus string

const (
	// RoomAvailable indicates no confirmed booking straddles the current time.
	RoomAvailable RoomStatus = "AVAILABLE"
	// RoomOccupied indicates a confirmed booking is in progress.
	RoomOccupied RoomStatus = "OCCUPIED"
)

// RoomType categorizes rooms in the catalog.
type RoomType string

const (
	RoomTypeLectureHall RoomType = "LECTURE_HALL"
	RoomTypeLab         RoomType = "LAB"
	RoomTypeSeminar     RoomType = "SEMINAR"
	RoomTypeMeeting     RoomType = "MEETING"
)

// EquipmentType categorizes equipment items.
type EquipmentType string

const (
	EquipmentProjector  EquipmentType = "PROJECTOR"
	EquipmentComputer   EquipmentType = "COMPUTER"
	EquipmentWhiteboard EquipmentType = "WHITEBOARD"
	EquipmentAudio      EquipmentType = "AUDIO"
	EquipmentOther      EquipmentType = "OTHER"
)

// UserRole enumerates account roles.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleLecturer UserRole = "LECTURER"
	RoleStudent  UserRole = "STUDENT"
)

// Booking represents a single reservation of a room for a half-open
// [Start, End) interval. Relations are expressed as plain foreign keys.
type Booking struct {
	ID               string
	RoomID           string
	UserID           string
	Start            time.Time
	End              time.Time
	Purpose          string
	Status           BookingStatus
	Notes            *string
	Recurring        bool
	RecurringGroupID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Room represents a catalog entry for a bookable room.
type Room struct {
	ID         string
	RoomNumber string
	Name       string
	Capacity   int
	Building   string
	Floor      string
	Location   string
	RoomType   RoomType
	Status     RoomStatus
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Equipment represents an equipment item, optionally assigned to a room.
type Equipment struct {
	ID          string
	Name        string
	Type        EquipmentType
	Description string
	Working     bool
	RoomID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User represents an account in the allocation system. The booking total shown
// on profiles is derived with a count query and is never stored on this struct's
// row authoritatively.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Department   string
	Role         UserRole
	Active       bool
	Points       int
	UsageStreak  int
	LastBooking  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
