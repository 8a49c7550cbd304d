package storage

import "time"

// ElectricitySnapshot stores a previously resolved electricity profile for a
// state+county pair. Payload is the JSON-encoded profile.
type ElectricitySnapshot struct {
	ID        uint      `json:"-" gorm:"primaryKey;column:id"`
	StateCode string    `json:"state_code" gorm:"column:state_code;index:idx_snapshot_loc"`
	County    string    `json:"county" gorm:"column:county;index:idx_snapshot_loc"`
	Source    string    `json:"source" gorm:"column:source"`
	Payload   []byte    `json:"payload" gorm:"column:payload"`
	FetchedAt time.Time `json:"fetched_at" gorm:"column:fetched_at"`
}

// QualificationRecord is the persisted audit of one rendered verdict.
// Payload is the full JSON verdict as returned to the caller.
type QualificationRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	ZipCode     string    `json:"zip_code" gorm:"column:zip_code"`
	StateCode   string    `json:"state_code" gorm:"column:state_code"`
	CreditBand  string    `json:"credit_band" gorm:"column:credit_band"`
	MonthlyBill float64   `json:"monthly_bill" gorm:"column:monthly_bill"`
	RoofSqFt    float64   `json:"roof_sq_ft" gorm:"column:roof_sq_ft"`
	Status      string    `json:"status" gorm:"column:status"`
	Payload     []byte    `json:"payload" gorm:"column:payload"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

// Setting is a key/value row for runtime-tunable configuration.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// EmailConfig holds configuration for email notifications.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp", "sendgrid", "resend"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// ScheduledJob records the last outcome of a background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}
