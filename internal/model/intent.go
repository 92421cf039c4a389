package model

// Intent is the resolved meaning of a single dialog turn.
type Intent string

const (
	IntentGreeting      Intent = "greeting"
	IntentUnknown       Intent = "unknown"
	IntentTodayCheapest Intent = "today_cheapest"
	IntentMonthCheapest Intent = "month_cheapest"
	IntentByTransfers   Intent = "by_transfers"
	IntentPopular       Intent = "popular_from_city"
)

// Classification is the classifier output: the intent plus, for
// IntentByTransfers, the requested transfer tier (0, 1 or 2).
type Classification struct {
	Intent    Intent
	Transfers int
}
