package core

import (
	"errors"
	"strings"
)

// Expense categories accepted by the expense form. CategoryOther doubles
// as the bucket for uncategorized entries when grouping.
const (
	CategoryFood           = "food"
	CategoryTransportation = "transportation"
	CategoryHousing        = "housing"
	CategoryUtilities      = "utilities"
	CategoryEntertainment  = "entertainment"
	CategoryShopping       = "shopping"
	CategoryHealth         = "health"
	CategoryEducation      = "education"
	CategoryTravel         = "travel"
	CategoryOther          = "other"
)

type (
	// User is a registered account as stored by the remote service.
	// Password carries the bcrypt hash on the wire and is stripped before
	// the record is persisted locally.
	User struct {
		ID                   string  `json:"id,omitempty"`
		Username             string  `json:"username"`
		Password             string  `json:"password,omitempty"`
		CreatedAt            int64   `json:"createdAt,omitempty"`
		BudgetLimit          float64 `json:"budgetLimit"`
		NotificationsEnabled bool    `json:"notificationsEnabled"`
	}

	// Expense is a single recorded expense owned by a user.
	Expense struct {
		ID          string  `json:"id,omitempty"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category,omitempty"`
		OwnerID     string  `json:"ownerid"`
		CreatedAt   int64   `json:"createdAt,omitempty"`
	}

	// ExpenseDraft is the user-supplied part of an expense. The owner and
	// creation timestamp are stamped by the expense store.
	ExpenseDraft struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category,omitempty"`
	}

	// ExpensePatch is a partial update. Nil fields are left untouched.
	ExpensePatch struct {
		Title       *string  `json:"title,omitempty"`
		Description *string  `json:"description,omitempty"`
		Amount      *float64 `json:"amount,omitempty"`
		Category    *string  `json:"category,omitempty"`
	}

	// UserPatch is a partial user update. Nil fields are left untouched.
	UserPatch struct {
		Username             *string  `json:"username,omitempty"`
		Password             *string  `json:"password,omitempty"`
		BudgetLimit          *float64 `json:"budgetLimit,omitempty"`
		NotificationsEnabled *bool    `json:"notificationsEnabled,omitempty"`
	}
)

var (
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidUsername  = errors.New("username must be an email address")
	ErrEmptyPassword    = errors.New("empty password")
	ErrInvalidBudget    = errors.New("budget limit must not be negative")
)

// Failure taxonomy shared by the stores and adapters.
var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrRemote             = errors.New("remote service error")
	ErrStorage            = errors.New("local storage error")
)

// Categories returns the fixed category set in display order.
func Categories() []string {
	return []string{
		CategoryFood, CategoryTransportation, CategoryHousing,
		CategoryUtilities, CategoryEntertainment, CategoryShopping,
		CategoryHealth, CategoryEducation, CategoryTravel, CategoryOther,
	}
}

// IsValidCategory reports whether c belongs to the fixed category set.
// The empty string is allowed: an expense may be left uncategorized.
func IsValidCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ValidateUsername enforces the email shape checked at registration time.
// Existing accounts are never re-validated; the remote service does not
// enforce the shape either.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	at := strings.Index(username, "@")
	if at < 1 {
		return ErrInvalidUsername
	}
	domain := username[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return ErrInvalidUsername
	}
	if strings.ContainsAny(username, " \t") {
		return ErrInvalidUsername
	}
	return nil
}

func (d ExpenseDraft) Validate() error {
	if len(strings.TrimSpace(d.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(strings.TrimSpace(d.Description)) == 0 {
		return ErrEmptyDescription
	}
	if d.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !IsValidCategory(d.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// Apply merges the non-nil fields of p into e.
func (e *Expense) Apply(p ExpensePatch) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
}

// Apply merges the non-nil fields of p into u.
func (u *User) Apply(p UserPatch) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.BudgetLimit != nil {
		u.BudgetLimit = *p.BudgetLimit
	}
	if p.NotificationsEnabled != nil {
		u.NotificationsEnabled = *p.NotificationsEnabled
	}
}

// MergeUser shallow-merges the server response into the current record:
// non-zero response fields win, everything else is preserved. This is how
// a partial-update response is folded into local state.
func MergeUser(current, response User) User {
	merged := current
	if response.ID != "" {
		merged.ID = response.ID
	}
	if response.Username != "" {
		merged.Username = response.Username
	}
	if response.Password != "" {
		merged.Password = response.Password
	}
	if response.CreatedAt != 0 {
		merged.CreatedAt = response.CreatedAt
	}
	// The service echoes the full record, so budget and notification flags
	// are taken as-is: zero is a meaningful value for both.
	merged.BudgetLimit = response.BudgetLimit
	merged.NotificationsEnabled = response.NotificationsEnabled
	return merged
}

// MergeExpense folds an update response into the local entry. Identity
// fields fall back to the current record when the response omits them;
// Category is taken as-is because the empty string means uncategorized.
func MergeExpense(current, response Expense) Expense {
	merged := response
	if merged.ID == "" {
		merged.ID = current.ID
	}
	if merged.OwnerID == "" {
		merged.OwnerID = current.OwnerID
	}
	if merged.CreatedAt == 0 {
		merged.CreatedAt = current.CreatedAt
	}
	if merged.Title == "" {
		merged.Title = current.Title
	}
	if merged.Description == "" {
		merged.Description = current.Description
	}
	if merged.Amount == 0 {
		merged.Amount = current.Amount
	}
	return merged
}

// Sanitized returns a copy of u with the password hash removed. Applied
// before the record is persisted locally or displayed.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}
