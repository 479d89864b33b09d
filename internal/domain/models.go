package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// PendingOrderStatus заказ создан, платёж ещё не найден в выписке;
	PendingOrderStatus string = "PENDING"
	// PaidWaitingJoinStatus платёж сопоставлен, ждём заявку на вступление;
	PaidWaitingJoinStatus string = "PAID_WAITING_JOIN"
)

// Order is a purchase intent. AmountExpected carries a random offset on top
// of months*price so the transfer amount alone identifies the order in the
// payment feed.
type Order struct {
	OrderID        string     `json:"order_id"`
	UserID         int64      `json:"user_id"`
	GroupID        int64      `json:"group_id"`
	Months         int        `json:"months"`
	AmountExpected int64      `json:"amount_expected"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	TxID           string     `json:"tx_id,omitempty"`
}

// Transaction is one record from the external mutation feed. Amount and
// timestamp are kept as strings and validated during reconciliation.
type Transaction struct {
	TxID      string `json:"tx_id"`
	Amount    string `json:"amount"`
	Timestamp string `json:"ts_iso"`
	Note      string `json:"note,omitempty"`
}

// UnmarshalJSON accepts amount and ts_iso as either JSON strings or bare
// numbers; the bank feed serves amounts as numbers. A value of any other
// type is kept as its raw text so validation fails that one record during
// reconciliation instead of failing the whole batch decode.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		TxID      string          `json:"tx_id"`
		Amount    json.RawMessage `json:"amount"`
		Timestamp json.RawMessage `json:"ts_iso"`
		Note      string          `json:"note"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.TxID = raw.TxID
	t.Amount = flattenScalar(raw.Amount)
	t.Timestamp = flattenScalar(raw.Timestamp)
	t.Note = raw.Note
	return nil
}

// flattenScalar renders a JSON scalar as its string form: quoted strings are
// unquoted, numbers keep their literal text. Anything else comes back as raw
// JSON.
func flattenScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// GuardEntry binds an issued invite token to the one identity allowed to
// redeem it. Deleted on the first valid join request.
type GuardEntry struct {
	UserID  int64  `json:"user_id"`
	GroupID int64  `json:"group_id"`
	Months  int    `json:"months"`
	OrderID string `json:"order_id"`
}

type Subscription struct {
	JoinAt      time.Time `json:"join_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	LastOrderID string    `json:"last_order_id"`
}

type Cart struct {
	Months int `json:"months"`
}

// UnmatchedPayment keeps a transaction that matched no pending order, for
// manual reconciliation through the admin API.
type UnmatchedPayment struct {
	TxID       string    `json:"tx_id"`
	Amount     string    `json:"amount"`
	Timestamp  string    `json:"ts_iso"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Document is the whole persisted state, saved write-through after every
// mutation. Only the state manager hands out access to it.
type Document struct {
	Orders         map[string]Order        `json:"orders"`
	Carts          map[string]Cart         `json:"carts"`
	Subs           map[string]Subscription `json:"subs"`
	Guard          map[string]GuardEntry   `json:"guard"`
	ProcessedTxIDs []string                `json:"processed_tx_ids"`
	Unmatched      []UnmatchedPayment      `json:"unmatched"`
	// Malformed counts consecutive polls on which a feed record failed to
	// parse, keyed by tx id. Records past the quarantine limit are marked
	// processed and surface as unmatched payments.
	Malformed map[string]int `json:"malformed,omitempty"`
}

func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize fills nil maps after loading an empty or older document.
func (d *Document) Normalize() {
	if d.Orders == nil {
		d.Orders = make(map[string]Order)
	}
	if d.Carts == nil {
		d.Carts = make(map[string]Cart)
	}
	if d.Subs == nil {
		d.Subs = make(map[string]Subscription)
	}
	if d.Guard == nil {
		d.Guard = make(map[string]GuardEntry)
	}
	if d.ProcessedTxIDs == nil {
		d.ProcessedTxIDs = make([]string, 0)
	}
	if d.Unmatched == nil {
		d.Unmatched = make([]UnmatchedPayment, 0)
	}
	if d.Malformed == nil {
		d.Malformed = make(map[string]int)
	}
}

func (d *Document) TxProcessed(txID string) bool {
	for _, id := range d.ProcessedTxIDs {
		if id == txID {
			return true
		}
	}
	return false
}

// SubKey is the subscription map key for a (group, user) pair.
func SubKey(groupID, userID int64) string {
	return fmt.Sprintf("%d|%d", groupID, userID)
}

func ParseSubKey(key string) (groupID, userID int64, err error) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed subscription key: %q", key)
	}
	groupID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed subscription key: %q", key)
	}
	userID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed subscription key: %q", key)
	}
	return groupID, userID, nil
}
