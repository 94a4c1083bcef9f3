// Package reward implements the listening reward state machine and the
// server-side play tracker that drives it from client heartbeats.
package reward

import "time"

// State is a Timer state.
type State string

const (
	StateIdle     State = "idle"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateRewarded State = "rewarded"
)

// Policy decides when listening earns a reward.
type Policy struct {
	// ThresholdSeconds of continuous playing time earn one reward.
	ThresholdSeconds int
	// Amount in rupiah per reward.
	Amount int64
	// Repeating grants a reward for every full threshold interval instead of
	// once per track.
	Repeating bool
}

func (p Policy) threshold() time.Duration {
	return time.Duration(p.ThresholdSeconds) * time.Second
}

// Reward is one balance credit produced by a Timer.
type Reward struct {
	VideoID string
	Amount  int64
	// Completed is set on the first reward of a track, which is when the
	// track counts towards songsPlayed.
	Completed bool
}

// Timer tracks playing time for the current track. It has no clock of its
// own: callers feed elapsed time through Advance.
type Timer struct {
	policy  Policy
	state   State
	videoID string
	elapsed time.Duration
	issued  int
	paused  State
}

// NewTimer creates an idle Timer.
func NewTimer(policy Policy) *Timer {
	return &Timer{policy: policy, state: StateIdle}
}

// State returns the current state.
func (t *Timer) State() State { return t.state }

// VideoID returns the current track, empty when idle.
func (t *Timer) VideoID() string { return t.videoID }

// Elapsed returns the accrued playing time of the current track.
func (t *Timer) Elapsed() time.Duration { return t.elapsed }

// Issued returns how many rewards the current track has produced.
func (t *Timer) Issued() int { return t.issued }

// Play starts videoID. Switching to a different track resets elapsed time and
// forfeits any progress towards the previous track's reward. Playing the
// current track again while paused resumes it.
func (t *Timer) Play(videoID string) {
	if t.state != StateIdle && videoID == t.videoID {
		t.Resume()
		return
	}
	t.videoID = videoID
	t.elapsed = 0
	t.issued = 0
	t.state = StatePlaying
}

// Pause stops accruing time without resetting it.
func (t *Timer) Pause() {
	if t.state == StatePlaying || t.state == StateRewarded {
		t.paused = t.state
		t.state = StatePaused
	}
}

// Resume continues a paused track.
func (t *Timer) Resume() {
	if t.state == StatePaused {
		t.state = t.paused
	}
}

// Stop returns the timer to idle.
func (t *Timer) Stop() {
	t.state = StateIdle
	t.videoID = ""
	t.elapsed = 0
	t.issued = 0
}

// Advance accrues d of playing time and returns the rewards that became due.
// Time only accrues while playing.
func (t *Timer) Advance(d time.Duration) []Reward {
	if d <= 0 || (t.state != StatePlaying && t.state != StateRewarded) {
		return nil
	}
	t.elapsed += d

	threshold := t.policy.threshold()
	if threshold <= 0 {
		return nil
	}
	due := int(t.elapsed / threshold)
	if !t.policy.Repeating && due > 1 {
		due = 1
	}

	var rewards []Reward
	for t.issued < due {
		rewards = append(rewards, Reward{
			VideoID:   t.videoID,
			Amount:    t.policy.Amount,
			Completed: t.issued == 0,
		})
		t.issued++
	}
	if t.issued > 0 {
		t.state = StateRewarded
	}
	return rewards
}
