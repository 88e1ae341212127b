package domain

import "time"

type User struct {
	ID          int64     `db:"id" json:"id"`
	ProviderID  string    `db:"provider_id" json:"provider_id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	UpiID       string    `db:"upi_id" json:"upi_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
