/*
Package store provides the GORM persistence layer: models and repositories
for employees, vacation periods, the movement ledger, agreements, loans and
their installments, generated documents, and login users.

The movement ledger is the source of truth for vacation balances. The
counters on VacationPeriod (taken/pending/truncated) are a derived cache
that vacation.Replay rebuilds whenever the ledger is edited; they are never
hand-edited on their own.
*/
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is a company collaborator. The hire date anchors every vacation
// period, so it becomes immutable once periods exist.
type Employee struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	DNI      string     `gorm:"size:12;not null;uniqueIndex" json:"dni"`
	Name     string     `gorm:"size:120;not null" json:"name"`
	Position string     `gorm:"size:120" json:"position"`
	Address  string     `gorm:"size:200" json:"address"`
	HireDate *time.Time `gorm:"type:date" json:"hire_date"`

	Periods    []VacationPeriod `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"periods,omitempty"`
	Agreements []Agreement      `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"agreements,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

// VacationPeriod is one annual accrual cycle. Typically two coexist: a
// generation period still accruing and a prior period whose balance is
// usable.
type VacationPeriod struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	Label      string    `gorm:"size:9;not null" json:"label"` // "2024-2025"
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`

	AllottedDays  int `gorm:"not null;default:30" json:"allotted_days"`
	TakenDays     int `gorm:"not null;default:0" json:"taken_days"`
	PendingDays   int `gorm:"not null;default:0" json:"pending_days"`
	TruncatedDays int `gorm:"not null;default:0" json:"truncated_days"`

	Movements []Movement `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"movements,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VacationPeriod) TableName() string { return "vacation_periods" }

// Movement is one immutable ledger entry against a period. Only its
// optional date range may be corrected after the fact; deleting one forces
// a replay of the period's counters.
type Movement struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	EmployeeID uint `gorm:"not null;index" json:"employee_id"`
	PeriodID   uint `gorm:"not null;index" json:"period_id"`

	Kind             string    `gorm:"size:50;not null" json:"kind"` // GOCE / AJUSTE / CONVENIO / period label
	Date             time.Time `gorm:"type:date;not null" json:"date"`
	Days             int       `gorm:"not null" json:"days"` // signed; consumption stored negative
	ResultingBalance int       `gorm:"not null" json:"resulting_balance"`

	RangeStart *time.Time `gorm:"type:date" json:"range_start,omitempty"`
	RangeEnd   *time.Time `gorm:"type:date" json:"range_end,omitempty"`

	AgreementID *uint `gorm:"index" json:"agreement_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Movement) TableName() string { return "movements" }

// Agreement records one cross-period accumulation event ("convenio"). The
// period snapshots are denormalized on purpose: the printed document must
// keep saying what was signed even if the periods move on.
type Agreement struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	EmployeeID uint `gorm:"not null;index" json:"employee_id"`

	RequestDate     *time.Time `gorm:"type:date" json:"request_date"`
	SigningDate     *time.Time `gorm:"type:date" json:"signing_date"`
	Description     string     `gorm:"type:text" json:"description"`
	TotalDays       int        `json:"total_days"`
	SecondDays      int        `json:"second_days"`
	SignatureStatus string     `gorm:"size:20;default:Pendiente" json:"signature_status"`

	Period1       string `gorm:"size:50" json:"period1"`
	Period2       string `gorm:"size:50" json:"period2"`
	Period1Detail string `gorm:"size:200" json:"period1_detail"`
	Period2Detail string `gorm:"size:200" json:"period2_detail"`

	Movements []Movement `gorm:"foreignKey:AgreementID" json:"movements,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Agreement) TableName() string { return "agreements" }

// Loan is an employee loan amortized over installments.
type Loan struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	EmployeeID uint `gorm:"not null;index" json:"employee_id"`

	Type          string          `gorm:"size:80;not null" json:"type"`
	Reason        string          `gorm:"size:200" json:"reason"`
	RequestDate   time.Time       `gorm:"type:date;not null" json:"request_date"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Installments  int             `gorm:"column:installment_count;not null" json:"installment_count"`
	IncludeGrati  bool            `gorm:"default:false" json:"include_gratification"`
	GratiFromYear int             `json:"gratification_from_year,omitempty"`
	SigningDate   time.Time       `gorm:"type:date;not null" json:"signing_date"`
	State         string          `gorm:"size:30;default:Emitido" json:"state"`
	FormatVersion string          `gorm:"size:30;default:GP-R-004 v06" json:"format_version"`
	CreatedBy     string          `gorm:"size:80" json:"created_by"`

	Employee      Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Schedule      []Installment  `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"schedule,omitempty"`
	Amortizations []Amortization `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"amortizations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Installment is one schedule line of a loan.
type Installment struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	LoanID uint `gorm:"not null;index" json:"loan_id"`

	Ordinal         int             `gorm:"not null;index" json:"ordinal"`
	Label           string          `gorm:"size:40;not null" json:"label"`
	Year            int             `gorm:"not null" json:"year"`
	Month           int             `gorm:"not null" json:"month"`
	IsGratification bool            `gorm:"default:false" json:"is_gratification"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	State           string          `gorm:"size:20;default:Pendiente" json:"state"`
	TheoreticalDate *time.Time      `gorm:"type:date" json:"theoretical_date,omitempty"`
	DeductedAt      *time.Time      `gorm:"type:date" json:"deducted_at,omitempty"`
}

func (Installment) TableName() string { return "loan_installments" }

// Amortization is one early payment applied against a loan.
type Amortization struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	LoanID uint `gorm:"not null;index" json:"loan_id"`

	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date   time.Time       `gorm:"type:date;not null" json:"date"`
	Note   string          `gorm:"size:200" json:"note"`
	User   string          `gorm:"size:80" json:"user"`

	CreatedAt time.Time `json:"created_at"`
}

func (Amortization) TableName() string { return "loan_amortizations" }

// Document records one generated file (agreement letter or loan sheet).
type Document struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	LoanID      *uint  `gorm:"index" json:"loan_id,omitempty"`
	AgreementID *uint  `gorm:"index" json:"agreement_id,omitempty"`
	Path        string `gorm:"size:300;not null" json:"path"`
	SHA256      string `gorm:"size:64" json:"sha256"`

	FormatVersion string    `gorm:"size:30" json:"format_version"`
	IssuedAt      time.Time `json:"issued_at"`
}

func (Document) TableName() string { return "documents" }

// User is an administrative login.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:80;not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Active       bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
