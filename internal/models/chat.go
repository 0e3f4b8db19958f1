package models

import "time"

// ChatRoom is a patient-hospital conversation thread
type ChatRoom struct {
	ID                 uint      `gorm:"column:id;primaryKey" json:"id"`
	HospitalID         uint      `gorm:"column:hospital_id;index;not null" json:"hospital_id"`
	PatientID          uint      `gorm:"column:patient_id;index;not null" json:"patient_id"`
	UnreadStaffCount   int       `gorm:"column:unread_staff_count;default:0" json:"unread_staff_count"`
	LastMessageAt      time.Time `gorm:"column:last_message_at;index" json:"last_message_at"`
	LastMessageByStaff bool      `gorm:"column:last_message_by_staff;default:false" json:"last_message_by_staff"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}
