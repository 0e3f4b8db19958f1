package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/medibook/backend/internal/channels"
	"github.com/medibook/backend/internal/models"
)

// Topology is the channel arrangement a notification type is delivered with
type Topology int

const (
	// TopologyPushOnly sends mobile push and nothing else
	TopologyPushOnly Topology = iota + 1
	// TopologySequential tries the business message, then SMS on any failure
	TopologySequential
	// TopologyParallel runs push and the sequential leg concurrently
	TopologyParallel
)

func (t Topology) String() string {
	switch t {
	case TopologyPushOnly:
		return "push_only"
	case TopologySequential:
		return "sequential"
	case TopologyParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// TopologyFor returns the topology of notification type t
func TopologyFor(t models.NotificationType) (Topology, bool) {
	switch t {
	case models.NotifyReservationConfirmed, models.NotifyReservationCancelled, models.NotifyReservationReminder:
		return TopologyParallel, true
	case models.NotifyReviewRequest, models.NotifyNewReservation, models.NotifyNewReview:
		return TopologyPushOnly, true
	case models.NotifyUnansweredChat:
		return TopologySequential, true
	default:
		return 0, false
	}
}

// Attempt is one adapter step and its outcome
type Attempt struct {
	Channel models.Channel   `json:"channel"`
	Outcome channels.Outcome `json:"outcome"`
}

// LegResult is the result of one leg. Channel is the channel that succeeded,
// or the last one tried when every step failed.
type LegResult struct {
	Channel   models.Channel     `json:"channel"`
	Success   bool               `json:"success"`
	ErrorCode channels.ErrorCode `json:"error_code,omitempty"`
	Attempts  []Attempt          `json:"attempts"`
}

// ChainOutcome is everything one Notify produced. Legs not part of the
// topology are nil.
type ChainOutcome struct {
	RecipientID uint                    `json:"recipient_id"`
	Type        models.NotificationType `json:"type"`
	Topology    string                  `json:"topology"`
	Push        *LegResult              `json:"push,omitempty"`
	Message     *LegResult              `json:"message,omitempty"`
	ErrorCode   channels.ErrorCode      `json:"error_code,omitempty"`
}

// Success reports whether any leg reached the recipient
func (o ChainOutcome) Success() bool {
	return (o.Push != nil && o.Push.Success) || (o.Message != nil && o.Message.Success)
}

// Attempts flattens the attempts of every leg
func (o ChainOutcome) Attempts() []Attempt {
	var all []Attempt
	if o.Push != nil {
		all = append(all, o.Push.Attempts...)
	}
	if o.Message != nil {
		all = append(all, o.Message.Attempts...)
	}
	return all
}

// AttemptFunc observes each step as soon as it finishes. Parallel legs call
// it concurrently.
type AttemptFunc func(Attempt)

// FallbackChain runs adapters in the arrangement a topology prescribes
type FallbackChain struct {
	push            channels.Adapter
	businessMessage channels.Adapter
	sms             channels.Adapter
}

func NewFallbackChain(push, businessMessage, sms channels.Adapter) *FallbackChain {
	return &FallbackChain{push: push, businessMessage: businessMessage, sms: sms}
}

// Run executes the topology for one recipient
func (c *FallbackChain) Run(ctx context.Context, topology Topology, to channels.Recipient, content channels.Content, observe AttemptFunc) ChainOutcome {
	return c.run(ctx, topology, to, content, observe, c.push, c.businessMessage, c.sms)
}

// Fail walks the topology without calling any adapter, failing every step
// with err. Used when nothing can be sent (unknown recipient, bad payload).
func (c *FallbackChain) Fail(ctx context.Context, topology Topology, err error, observe AttemptFunc) ChainOutcome {
	return c.run(ctx, topology, channels.Recipient{}, channels.Content{}, observe,
		failingAdapter{models.ChannelPush, err},
		failingAdapter{models.ChannelBusinessMessage, err},
		failingAdapter{models.ChannelSMS, err},
	)
}

func (c *FallbackChain) run(ctx context.Context, topology Topology, to channels.Recipient, content channels.Content, observe AttemptFunc, push, bm, sms channels.Adapter) ChainOutcome {
	out := ChainOutcome{RecipientID: to.UserID, Topology: topology.String()}
	if observe == nil {
		observe = func(Attempt) {}
	}

	switch topology {
	case TopologyPushOnly:
		leg := runSequential(ctx, to, content, observe, push)
		out.Push = &leg
	case TopologySequential:
		leg := runSequential(ctx, to, content, observe, bm, sms)
		out.Message = &leg
	case TopologyParallel:
		var pushLeg, messageLeg LegResult
		var g errgroup.Group
		g.Go(func() error {
			pushLeg = runSequential(ctx, to, content, observe, push)
			return nil
		})
		g.Go(func() error {
			messageLeg = runSequential(ctx, to, content, observe, bm, sms)
			return nil
		})
		_ = g.Wait()
		out.Push = &pushLeg
		out.Message = &messageLeg
	}
	return out
}

// runSequential tries each adapter in order and stops at the first success.
// It is also the single-step leg used for push.
func runSequential(ctx context.Context, to channels.Recipient, content channels.Content, observe AttemptFunc, steps ...channels.Adapter) LegResult {
	var leg LegResult
	for _, adapter := range steps {
		outcome := adapter.Send(ctx, to, content)
		attempt := Attempt{Channel: adapter.Channel(), Outcome: outcome}
		leg.Attempts = append(leg.Attempts, attempt)
		leg.Channel = attempt.Channel
		observe(attempt)

		if outcome.Success {
			leg.Success = true
			leg.ErrorCode = ""
			return leg
		}
		leg.ErrorCode = outcome.ErrorCode
	}
	return leg
}

type failingAdapter struct {
	channel models.Channel
	err     error
}

func (f failingAdapter) Channel() models.Channel {
	return f.channel
}

func (f failingAdapter) Send(context.Context, channels.Recipient, channels.Content) channels.Outcome {
	return channels.Failed(f.err)
}
