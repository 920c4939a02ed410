package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type storageRecord struct {
	bun.BaseModel `bun:"table:appclient_storage,alias:st"`

	ID        string    `bun:"id,pk"`
	Key       string    `bun:"storage_key,notnull"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
