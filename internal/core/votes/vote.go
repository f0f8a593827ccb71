package votes

import "time"

// Vote is one durable rating row. The (CaptionID, UserID) pair is unique for
// the lifetime of the data; a vote, once recorded, is immutable and permanent.
type Vote struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	CaptionID string    `json:"captionId" db:"caption_id"`
	UserID    string    `json:"userId" db:"profile_id"`
	Value     int       `json:"value" db:"vote_value"`
}

// Domain is the configured rating value domain. Either a discrete scale
// (e.g. 1..5) or a binary polarity (-1/+1) fits without structural change.
type Domain struct {
	Min    int
	Max    int
	Binary bool // restrict to exactly Min or Max (polarity mode)
}

// Validate reports whether v falls inside the domain.
func (d Domain) Validate(v int) error {
	if v < d.Min || v > d.Max {
		return ErrValueOutOfRange
	}
	if d.Binary && v != d.Min && v != d.Max {
		return ErrValueOutOfRange
	}
	return nil
}

// State is the per-(user, caption) submission state as seen by one session.
// Voted is terminal: no transition leads out of it.
type State int

const (
	Unvoted State = iota
	Submitting
	Voted
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Voted:
		return "voted"
	default:
		return "unvoted"
	}
}
