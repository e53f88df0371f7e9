// Package calendar holds the time arithmetic behind the scheduling views:
// the visible grid and its 15-minute snapping, half-open overlap checks,
// bookable slot lists and all-day block detection. The appointment service
// uses these on the server to reject conflicting bookings.
//
// Controller, Picker and PendingMove are client-side interaction state:
// the drag gesture reducer, the reschedule form and the confirm step for a
// dropped appointment. Nothing in the HTTP server drives them directly.
// They are built over server data by appointment.Service.GestureController
// and exercised by this package's tests.
package calendar
