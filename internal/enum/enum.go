package enum

// ── Group A: State machines ──

const (
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusHold      = "hold"
	OrderStatusCompleted = "completed"
)

const (
	ItemStatusAvailable   = "available"
	ItemStatusUnavailable = "unavailable"
)

// ── Group B: Draft choices ──

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodUPI    = "upi"
	PaymentMethodOnline = "online"
)

// ── Group C: Access ──

const (
	UserRoleAdmin   = "admin"
	UserRoleManager = "manager"
	UserRoleCashier = "cashier"
)

// ── Group D: Report periods ──

const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodAll       = "all"
)

func IsOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return true
	}
	return false
}

func IsUserRole(s string) bool {
	switch s {
	case UserRoleAdmin, UserRoleManager, UserRoleCashier:
		return true
	}
	return false
}
