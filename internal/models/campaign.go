package models

import (
	"fmt"
	"time"
)

// ReminderCandidate is a confirmed reservation due for a day-before reminder
type ReminderCandidate struct {
	ReservationID uint
	PatientID     uint
	PatientName   string
	HospitalName  string
	ReservedAt    time.Time
}

// ReviewCandidate is a completed reservation due for a review request
type ReviewCandidate struct {
	ReservationID uint
	PatientID     uint
	HospitalName  string
	CompletedAt   time.Time
}

// ChatBacklog aggregates unanswered chat threads for one hospital
type ChatBacklog struct {
	HospitalID   uint
	HospitalName string
	ThreadCount  int
}

// ReservationKey is the correlation key for reservation-scoped notifications
func ReservationKey(reservationID uint) string {
	return fmt.Sprintf("reservation:%d", reservationID)
}

// HospitalKey is the correlation key for hospital-scoped notifications
func HospitalKey(hospitalID uint) string {
	return fmt.Sprintf("hospital:%d", hospitalID)
}
