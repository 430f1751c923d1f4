package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// Admin is a dashboard account. Password holds either the plain value or a
// bcrypt hash, depending on admin.hash_passwords at seed time.
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:ad"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Username  string    `bun:"username,unique,notnull"`
	Password  string    `bun:"password,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Credentials is the login form.
type Credentials struct {
	Username string
	Password string
}
