// Package encourage picks short motivational lines for streak updates.
package encourage

import (
	"fmt"
	"math/rand/v2"
	"time"
)

var generic = []string{
	"Great job! Keep it up!",
	"You're doing amazing!",
	"Every step counts!",
	"You're building great habits!",
	"Keep going!",
	"You're on fire!",
	"Consistency is key!",
	"Well done!",
}

var milestones = map[int]string{
	3:   "3 days in a row! You're building momentum!",
	7:   "A full week! You're unstoppable!",
	14:  "Two weeks strong! Keep it going!",
	30:  "A whole month! Incredible dedication!",
	100: "100 days! You're a habit master!",
}

// Picker chooses messages. The zero value is not usable; use New.
type Picker struct {
	rng *rand.Rand
}

// New returns a Picker drawing from src. A nil src seeds from the clock.
func New(src rand.Source) *Picker {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>32|1)
	}
	return &Picker{rng: rand.New(src)}
}

// Message returns the milestone line for streak if there is one, otherwise a
// generic line picked uniformly at random.
func (p *Picker) Message(streak int) string {
	if msg, ok := Milestone(streak); ok {
		return msg
	}
	return generic[p.rng.IntN(len(generic))]
}

// Milestone returns the fixed message for a milestone streak length.
func Milestone(streak int) (string, bool) {
	msg, ok := milestones[streak]
	return msg, ok
}

// NextHabit nudges toward the habits still open today.
func NextHabit(remaining int) string {
	switch {
	case remaining <= 0:
		return "All done for today! You're amazing!"
	case remaining == 1:
		return "One more to go! You've got this!"
	default:
		return fmt.Sprintf("Only %d more to go! Keep it up!", remaining)
	}
}

// Generic returns a copy of the generic message set.
func Generic() []string {
	out := make([]string, len(generic))
	copy(out, generic)
	return out
}
