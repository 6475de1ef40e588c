package tenant

import (
	"database/sql"
	"time"
)

// PaymentSettings is one row of tenant_payment_settings. The secret key is
// only ever stored sealed.
type PaymentSettings struct {
	TenantID     int64        `db:"tenant_id"`
	Provider     string       `db:"provider"`
	MerchantID   string       `db:"merchant_id"`
	SecretSealed string       `db:"secret_sealed"`
	AccessCode   string       `db:"access_code"`
	TestMode     sql.NullBool `db:"test_mode"`
	UpdatedAt    time.Time    `db:"updated_at"`
}
