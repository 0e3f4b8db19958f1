package models

import "time"

// ReservationStatus mirrors the booking backend's reservation state machine
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// Reservation holds the columns the campaign queries read
type Reservation struct {
	ID          uint              `gorm:"column:id;primaryKey" json:"id"`
	PatientID   uint              `gorm:"column:patient_id;index;not null" json:"patient_id"`
	HospitalID  uint              `gorm:"column:hospital_id;index;not null" json:"hospital_id"`
	Status      ReservationStatus `gorm:"column:status;size:20;not null" json:"status"`
	ReservedAt  time.Time         `gorm:"column:reserved_at;index" json:"reserved_at"`
	CompletedAt *time.Time        `gorm:"column:completed_at;index" json:"completed_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}
