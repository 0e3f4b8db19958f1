package models

import "time"

// UserType represents the type of user
type UserType int

const (
	UserTypePatient       UserType = 1
	UserTypeStaff         UserType = 2
	UserTypeHospitalAdmin UserType = 3
)

// StaffUserTypes are the user types that receive hospital-side alerts
var StaffUserTypes = []UserType{UserTypeStaff, UserTypeHospitalAdmin}

// PushPlatform identifies the mobile OS a push token belongs to
type PushPlatform string

const (
	PlatformAndroid PushPlatform = "android"
	PlatformIOS     PushPlatform = "ios"
)

// User is the directory row shared by patients and hospital staff. The booking
// backend owns it; this service reads contact columns and writes push_token only.
type User struct {
	ID           uint          `gorm:"column:id;primaryKey" json:"id"`
	Name         string        `gorm:"column:name;size:100" json:"name"`
	Phone        string        `gorm:"column:phone;size:30" json:"phone"`
	UserType     UserType      `gorm:"column:user_type;not null;default:1" json:"user_type"`
	HospitalID   *uint         `gorm:"column:hospital_id;index" json:"hospital_id,omitempty"`
	PushToken    *string       `gorm:"column:push_token;size:512" json:"-"`
	PushPlatform *PushPlatform `gorm:"column:push_platform;size:10" json:"push_platform,omitempty"`
	IsActive     bool          `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt    time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
