package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table model
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string     `bun:"email,notnull"`
	PasswordHash string     `bun:"password_hash,notnull"`
	Role         string     `bun:"role,notnull"`
	FullName     *string    `bun:"full_name"`
	IsActive     bool       `bun:"is_active,notnull,default:true"`
	DOB          *time.Time `bun:"dob"`
	Sex          *string    `bun:"sex"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Report is the reports table model; the extracted payload is stored
// as JSONB since every field of it is optional
type Report struct {
	bun.BaseModel `bun:"table:reports,alias:r"`

	ID        uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	PatientID uuid.UUID       `bun:"patient_id,notnull,type:uuid"`
	Payload   json.RawMessage `bun:"payload,type:jsonb,notnull"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}
