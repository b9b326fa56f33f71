package boxes

import (
	"strings"
	"time"
)

// DateLayout is the only accepted date format for box deadlines.
const DateLayout = "02.01.2006"

type User struct {
	ID           int64
	Username     string
	FullName     string
	RegisteredAt time.Time
}

// DisplayName prefers the full name and falls back to @username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}

type Box struct {
	ID           int64
	Name         string
	JoinCode     string
	FinalRegDate time.Time
	MaxGiftPrice float64
	GiftDate     time.Time
	AdminID      int64
	CreatedAt    time.Time
}

func (b Box) IsAdmin(userID int64) bool {
	return b.AdminID == userID
}

type Participation struct {
	UserID     int64
	BoxID      int64
	Profile    map[string]string
	ReceiverID *int64
	JoinedAt   time.Time
}

// Open reports whether the participation still accepts survey and gift edits.
func (p Participation) Open() bool {
	return p.ReceiverID == nil
}

func (p Participation) HasProfile() bool {
	return len(p.Profile) > 0
}

type Gift struct {
	ID        int64
	BoxID     int64
	UserID    int64
	URL       string
	Name      string
	Price     *float64
	IsExact   bool
	CreatedAt time.Time
}

// Member is a participation joined with its user row.
type Member struct {
	User          User
	Participation Participation
}

type CreateBoxRequest struct {
	Name         string
	FinalRegDate time.Time
	MaxGiftPrice float64
	GiftDate     time.Time
	AdminID      int64
}

type AddGiftRequest struct {
	BoxID   int64
	UserID  int64
	URL     string
	IsExact bool
}
