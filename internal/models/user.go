package models

// User is the users row
type User struct {
	ID        int64  `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	Name      string `json:"name" db:"name"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

// TripMember is the trip_members row
type TripMember struct {
	TripID      int64  `json:"trip_id" db:"trip_id"`
	UserID      int64  `json:"user_id" db:"user_id"`
	AccessLevel string `json:"access_level" db:"access_level"`
	JoinedAt    int64  `json:"joined_at" db:"joined_at"`
}
