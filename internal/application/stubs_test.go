package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/smartroom/internal/persistence"
)

// Shared in-memory stubs for the service tests. Behaviour toggles are plain
// fields so each test configures only what it cares about.

type conflictQuery struct {
	roomID    string
	start     time.Time
	end       time.Time
	excludeID string
}

type bookingRepoStub struct {
	bookings map[string]persistence.Booking

	createErr error
	updateErr error
	batchErr  error

	conflictErr   error
	conflictCount int
	// conflictOn, when set, decides conflicts per query instead of conflictCount.
	conflictOn func(q conflictQuery) int

	created       []persistence.Booking
	updated       []persistence.Booking
	batches       [][]persistence.Booking
	conflictCalls []conflictQuery

	byUser        []persistence.Booking
	upcoming      []persistence.Booking
	current       []persistence.Booking
	ended         []persistence.Booking
	countByUser   int
	hasConfirmed  bool
	deletedRows   int
	listErr       error
	deleteOldErr  error
	hasFutureErr  error
	countUserErr  error
}

func newBookingRepoStub() *bookingRepoStub {
	return &bookingRepoStub{bookings: make(map[string]persistence.Booking)}
}

func (s *bookingRepoStub) put(bookings ...persistence.Booking) {
	for _, booking := range bookings {
		s.bookings[booking.ID] = booking
	}
}

func (s *bookingRepoStub) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.bookings[booking.ID] = booking
	s.created = append(s.created, booking)
	return nil
}

func (s *bookingRepoStub) CreateBookings(ctx context.Context, bookings []persistence.Booking) error {
	if s.batchErr != nil {
		return s.batchErr
	}
	s.batches = append(s.batches, append([]persistence.Booking(nil), bookings...))
	for _, booking := range bookings {
		s.bookings[booking.ID] = booking
	}
	return nil
}

func (s *bookingRepoStub) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.bookings[booking.ID] = booking
	s.updated = append(s.updated, booking)
	return nil
}

func (s *bookingRepoStub) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (s *bookingRepoStub) CountConflicts(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error) {
	query := conflictQuery{roomID: roomID, start: start, end: end, excludeID: excludeID}
	s.conflictCalls = append(s.conflictCalls, query)
	if s.conflictErr != nil {
		return 0, s.conflictErr
	}
	if s.conflictOn != nil {
		return s.conflictOn(query), nil
	}
	return s.conflictCount, nil
}

func (s *bookingRepoStub) ListByUser(ctx context.Context, userID string) ([]persistence.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.byUser, nil
}

func (s *bookingRepoStub) CountByUser(ctx context.Context, userID string) (int, error) {
	if s.countUserErr != nil {
		return 0, s.countUserErr
	}
	return s.countByUser, nil
}

func (s *bookingRepoStub) ListUpcomingForRoom(ctx context.Context, roomID string, now time.Time) ([]persistence.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.upcoming, nil
}

func (s *bookingRepoStub) ListCurrent(ctx context.Context, now time.Time) ([]persistence.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.current, nil
}

func (s *bookingRepoStub) ListConfirmedEndedBefore(ctx context.Context, now time.Time) ([]persistence.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ended, nil
}

func (s *bookingRepoStub) HasConfirmedAfter(ctx context.Context, roomID string, now time.Time) (bool, error) {
	if s.hasFutureErr != nil {
		return false, s.hasFutureErr
	}
	return s.hasConfirmed, nil
}

func (s *bookingRepoStub) DeleteCancelledBefore(ctx context.Context, threshold time.Time) (int, error) {
	if s.deleteOldErr != nil {
		return 0, s.deleteOldErr
	}
	return s.deletedRows, nil
}

type roomRepoStub struct {
	rooms     map[string]persistence.Room
	createErr error
	updateErr error
	deleteErr error
	deleted   []string
	updated   []persistence.Room
}

func newRoomRepoStub(rooms ...persistence.Room) *roomRepoStub {
	stub := &roomRepoStub{rooms: make(map[string]persistence.Room)}
	for _, room := range rooms {
		stub.rooms[room.ID] = room
	}
	return stub
}

func (s *roomRepoStub) CreateRoom(ctx context.Context, room persistence.Room) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *roomRepoStub) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.rooms[room.ID] = room
	s.updated = append(s.updated, room)
	return nil
}

func (s *roomRepoStub) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *roomRepoStub) GetRoomByNumber(ctx context.Context, roomNumber string) (persistence.Room, error) {
	for _, room := range s.rooms {
		if room.RoomNumber == roomNumber {
			return room, nil
		}
	}
	return persistence.Room{}, persistence.ErrNotFound
}

func (s *roomRepoStub) ListActiveRooms(ctx context.Context) ([]persistence.Room, error) {
	var out []persistence.Room
	for _, room := range s.rooms {
		if room.Active {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *roomRepoStub) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	var out []persistence.Room
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (s *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rooms, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type userRepoStub struct {
	users     map[string]persistence.User
	createErr error
	updateErr error
	updated   []persistence.User
	byPoints  []persistence.User
}

func newUserRepoStub(users ...persistence.User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]persistence.User)}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (s *userRepoStub) CreateUser(ctx context.Context, user persistence.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) UpdateUser(ctx context.Context, user persistence.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = user
	s.updated = append(s.updated, user)
	return nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepoStub) ListUsersByPoints(ctx context.Context, limit int) ([]persistence.User, error) {
	if limit < len(s.byPoints) {
		return s.byPoints[:limit], nil
	}
	return s.byPoints, nil
}

type equipmentRepoStub struct {
	items       map[string]persistence.Equipment
	detached    []string
	detachCount int
	detachErr   error
	deleteErr   error
}

func newEquipmentRepoStub(items ...persistence.Equipment) *equipmentRepoStub {
	stub := &equipmentRepoStub{items: make(map[string]persistence.Equipment)}
	for _, item := range items {
		stub.items[item.ID] = item
	}
	return stub
}

func (s *equipmentRepoStub) CreateEquipment(ctx context.Context, item persistence.Equipment) error {
	s.items[item.ID] = item
	return nil
}

func (s *equipmentRepoStub) UpdateEquipment(ctx context.Context, item persistence.Equipment) error {
	if _, ok := s.items[item.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.items[item.ID] = item
	return nil
}

func (s *equipmentRepoStub) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	item, ok := s.items[id]
	if !ok {
		return persistence.Equipment{}, persistence.ErrNotFound
	}
	return item, nil
}

func (s *equipmentRepoStub) ListEquipmentForRoom(ctx context.Context, roomID string) ([]persistence.Equipment, error) {
	var out []persistence.Equipment
	for _, item := range s.items {
		if item.RoomID != nil && *item.RoomID == roomID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *equipmentRepoStub) DetachEquipmentFromRoom(ctx context.Context, roomID string) (int, error) {
	if s.detachErr != nil {
		return 0, s.detachErr
	}
	s.detached = append(s.detached, roomID)
	count := 0
	for id, item := range s.items {
		if item.RoomID != nil && *item.RoomID == roomID {
			item.RoomID = nil
			s.items[id] = item
			count++
		}
	}
	if s.detachCount > 0 {
		return s.detachCount, nil
	}
	return count, nil
}

func (s *equipmentRepoStub) DeleteEquipment(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type notifierStub struct {
	confirmed []persistence.Booking
	cancelled []persistence.Booking
	updatedOld []persistence.Booking
	updatedNew []persistence.Booking
	series    [][]persistence.Booking
}

func (s *notifierStub) BookingConfirmed(ctx context.Context, booking persistence.Booking) {
	s.confirmed = append(s.confirmed, booking)
}

func (s *notifierStub) BookingCancelled(ctx context.Context, booking persistence.Booking) {
	s.cancelled = append(s.cancelled, booking)
}

func (s *notifierStub) BookingUpdated(ctx context.Context, old, updated persistence.Booking) {
	s.updatedOld = append(s.updatedOld, old)
	s.updatedNew = append(s.updatedNew, updated)
}

func (s *notifierStub) RecurringSeriesConfirmed(ctx context.Context, series []persistence.Booking) {
	s.series = append(s.series, append([]persistence.Booking(nil), series...))
}

type pointsAward struct {
	userID string
	delta  int
	when   time.Time
}

type pointsSinkStub struct {
	awards []pointsAward
	err    error
}

func (s *pointsSinkStub) AddPoints(ctx context.Context, userID string, delta int, when time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.awards = append(s.awards, pointsAward{userID: userID, delta: delta, when: when})
	return nil
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}
