package core

import "github.com/shopspring/decimal"

// Boundary rows, as stored. Field names follow the store's schema, not the
// view entities; only the projector and the mutation builder translate
// between the two.
type (
	TypeRow struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug,omitempty"`
	}

	StatusRow struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug,omitempty"`
	}

	OperationRow struct {
		ID         string      `json:"id"`
		UserID     string      `json:"user_id"`
		Name       string      `json:"name"`
		Money      LooseNumber `json:"money"`
		Date       string      `json:"date"`
		CategoryID string      `json:"category_id,omitempty"`
		TypeID     int64       `json:"type_id"`
		StatusID   int64       `json:"status_id,omitempty"`
		CreatedAt  string      `json:"created_at,omitempty"`
	}

	CategoryRow struct {
		ID        string `json:"id"`
		UserID    string `json:"user_id"`
		Name      string `json:"name"`
		TypeID    int64  `json:"type_id"`
		ColorCode string `json:"color_code,omitempty"`
		CreatedAt string `json:"created_at,omitempty"`
	}

	GoalRow struct {
		ID        string      `json:"id"`
		UserID    string      `json:"user_id"`
		Name      string      `json:"name"`
		FullMoney LooseNumber `json:"full_money"`
		Collected LooseNumber `json:"collected"`
		Deadline  string      `json:"deadline,omitempty"`
		CreatedAt string      `json:"created_at,omitempty"`
	}

	BudgetRow struct {
		ID     string      `json:"id"`
		UserID string      `json:"user_id"`
		Title  string      `json:"title"`
		Limit  LooseNumber `json:"limit"`
		Spent  LooseNumber `json:"spent"`
	}
)

// Write payloads produced by the mutation builder. Pointer fields are
// nullable columns.
type (
	OperationPayload struct {
		Name       string          `json:"name"`
		Money      decimal.Decimal `json:"money"`
		Date       string          `json:"date"`
		CategoryID *string         `json:"category_id"`
		TypeID     int64           `json:"type_id"`
		StatusID   *int64          `json:"status_id"`
	}

	CategoryPayload struct {
		Name      string  `json:"name"`
		TypeID    int64   `json:"type_id"`
		ColorCode *string `json:"color_code"`
	}

	GoalPayload struct {
		Name      string          `json:"name"`
		FullMoney decimal.Decimal `json:"full_money"`
		Collected decimal.Decimal `json:"collected"`
		Deadline  *string         `json:"deadline"`
	}

	BudgetPayload struct {
		Title string          `json:"title"`
		Limit decimal.Decimal `json:"limit"`
		Spent decimal.Decimal `json:"spent"`
	}
)
