package conversation

import (
	"context"
	"errors"
	"time"
)

type Flow string

const (
	FlowNone        Flow = ""
	FlowBoxCreation Flow = "box_creation"
	FlowSurvey      Flow = "survey"
	FlowGifts       Flow = "gifts"
	FlowMessaging   Flow = "messaging"
)

type Step string

const (
	StepAwaitingName      Step = "awaiting_name"
	StepAwaitingDeadline  Step = "awaiting_deadline"
	StepAwaitingPriceCap  Step = "awaiting_price_cap"
	StepAwaitingGiftDate  Step = "awaiting_gift_date"
	StepAwaitingAnswer    Step = "awaiting_answer"
	StepAwaitingURL       Step = "awaiting_url"
	StepAwaitingExactFlag Step = "awaiting_exact_flag"
	StepAwaitingMore      Step = "awaiting_more"
	StepAwaitingMessage   Step = "awaiting_message"
)

// Data holds the partial answers of the active flow.
type Data struct {
	BoxID         int64             `json:"box_id,omitempty"`
	QuestionIndex int               `json:"question_index,omitempty"`
	Answers       map[string]string `json:"answers,omitempty"`
	BoxName       string            `json:"box_name,omitempty"`
	FinalRegDate  string            `json:"final_reg_date,omitempty"`
	MaxGiftPrice  float64           `json:"max_gift_price,omitempty"`
	GiftURL       string            `json:"gift_url,omitempty"`
	Direction     string            `json:"direction,omitempty"`
}

type State struct {
	UserID    int64     `json:"user_id"`
	Flow      Flow      `json:"flow"`
	Step      Step      `json:"step"`
	Data      Data      `json:"data"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s State) Active() bool {
	return s.Flow != FlowNone
}

var ErrVersionConflict = errors.New("conversation state was changed concurrently")

// Store keeps one state per user with a fixed inactivity TTL enforced on access.
type Store interface {
	// Get returns false when there is no live state for the user.
	Get(ctx context.Context, userID int64) (State, bool, error)
	// Put writes st if the stored version still equals st.Version and returns it with the next version.
	Put(ctx context.Context, st State) (State, error)
	Delete(ctx context.Context, userID int64) error
}

// Locker serialises event handling per user.
type Locker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}
