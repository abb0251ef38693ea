// Package http provides HTTP handlers and middleware for the smartroom API.
//
// The router exposes the following endpoints:
//   - POST /auth/register: creates an account. Body: {"username","email","password",
//     "full_name","department","role"}. Response: the created user profile.
//   - POST /auth/login: verifies credentials and issues a bearer token. Response:
//     {"token","expires_at","user":{...}}.
//   - GET /rooms, GET /rooms/{id}, GET /rooms/available, GET /rooms/{id}/equipment,
//     GET /rooms/{id}/upcoming: catalog and availability reads open to any
//     authenticated principal.
//   - POST /rooms, PATCH /rooms/{id}, DELETE /rooms/{id}: admin-only room
//     catalog mutations exchanging the roomDTO payload in room_handler.go.
//   - POST /bookings, POST /bookings/recurring, PATCH /bookings/{id},
//     POST /bookings/{id}/cancel, GET /bookings/mine, GET /bookings/current:
//     booking lifecycle endpoints exchanging the bookingDTO payload in
//     booking_handler.go. Conflicts surface as 409 responses.
//   - POST /equipment, PATCH /equipment/{id}, PUT /equipment/{id}/room,
//     DELETE /equipment/{id}/room, DELETE /equipment/{id}: admin-only equipment
//     management.
//   - GET /users/me, GET /leaderboard: profile and gamification reads.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
