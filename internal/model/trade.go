package model

import "time"

// EntryCause tags why a lot was opened.
type EntryCause string

const (
	CauseDrop  EntryCause = "DROP"
	CauseForce EntryCause = "FORCE"
)

// Action is the kind of a trade log entry.
type Action string

const (
	ActionInitBuy       Action = "BUY (Init)"
	ActionDefensiveSell Action = "SELL (Defensive)"
	ActionResumeBuy     Action = "BUY (Resume)"
	ActionProfitDrop    Action = "SELL (Profit/DROP)"
	ActionProfitForce   Action = "SELL (Profit/FORCE)"
	ActionSwitch        Action = "SWITCH"
	ActionForceBuy      Action = "FORCE (Idle)"
	ActionSkip          Action = "SKIP (Limit)"
	ActionHolding       Action = "HOLDING"
)

// ProfitAction returns the exit action for a lot opened by cause.
func ProfitAction(cause EntryCause) Action {
	if cause == CauseForce {
		return ActionProfitForce
	}
	return ActionProfitDrop
}

// Counted reports whether the action counts as an executed trade.
func (a Action) Counted() bool {
	return a != ActionSkip && a != ActionHolding
}

// NoStep marks trades that do not belong to a ladder step.
const NoStep = -1

// Trade is one entry of the trade log.
type Trade struct {
	Date      time.Time
	Action    Action
	From      string // source instrument of a switch, empty otherwise
	Ticker    string
	Shares    float64
	Price     float64
	Value     float64
	Reason    string
	StepIdx   int
	DropPct   float64
	ProfitAmt float64
	ProfitPct float64
	BuyDate   time.Time
	DaysHeld  int
}

// Instrument renders the traded instrument, "BASE->TARGET" for switches.
func (t Trade) Instrument() string {
	if t.From != "" {
		return t.From + "->" + t.Ticker
	}
	return t.Ticker
}

// Lot is an open tactical position opened by a step.
type Lot struct {
	Ticker     string
	Shares     float64
	EntryPrice float64
	StepIdx    int
	EntryDate  time.Time
	Cost       float64
	Cause      EntryCause
}
