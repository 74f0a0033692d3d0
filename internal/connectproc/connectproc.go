// Package connectproc implements the outbound connect procedure (C5):
// non-blocking connect with timeout, address-family iteration, and a
// clean distinction between "refused" and "timed out".
package connectproc

import (
	"time"

	"github.com/pkg/errors"

	"github.com/dbrouter/routingcore/internal/netaddr"
	"github.com/dbrouter/routingcore/internal/socketops"
)

// Outcome classifies why Connect did not return a usable socket.
type Outcome int

const (
	// OutcomeConnected means the returned handle is ready to use.
	OutcomeConnected Outcome = iota
	// OutcomeRefused means every candidate address failed and the
	// last one failed for a reason other than a timeout, or that
	// resolution failed or produced no candidates.
	OutcomeRefused
	// OutcomeTimeout means the last candidate's connect attempt timed
	// out waiting for writability.
	OutcomeTimeout
)

// ErrNoCandidates is returned when address resolution produces zero
// candidates for the target address.
var ErrNoCandidates = errors.New("connectproc: no address candidates resolved")

// Connect resolves addr, then tries each resulting candidate in turn:
// open a socket, attempt a non-blocking connect, and on
// ConnectInProgress poll for writability up to the remaining timeout.
// It returns the first candidate that connects; if every candidate
// fails, it reports Timeout only if the last failure was a timeout,
// Refused otherwise.
func Connect(ops socketops.SocketOps, addr netaddr.Address, timeout time.Duration) (socketops.Handle, Outcome, error) {
	candidates, err := ops.Resolve(addr.Host, addr.Port)
	if err != nil {
		return 0, OutcomeRefused, errors.Wrapf(err, "resolve %s", addr)
	}
	if len(candidates) == 0 {
		return 0, OutcomeRefused, ErrNoCandidates
	}

	deadline := time.Now().Add(timeout)
	lastTimedOut := false
	var lastErr error

	for _, cand := range candidates {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			remaining = 0
		}

		h, timedOut, err := tryOne(ops, cand, remaining)
		if err == nil {
			return h, OutcomeConnected, nil
		}
		lastErr = err
		lastTimedOut = timedOut
	}

	if lastTimedOut {
		return 0, OutcomeTimeout, lastErr
	}
	return 0, OutcomeRefused, lastErr
}

// tryOne attempts a single candidate address, returning the connected
// handle, or an error plus whether that error was a timeout.
func tryOne(ops socketops.SocketOps, addr netaddr.Address, timeout time.Duration) (socketops.Handle, bool, error) {
	family := socketops.FamilyINet
	if addr.IsIPv6() {
		family = socketops.FamilyINet6
	}
	h, err := ops.Open(family, socketops.SockStream)
	if err != nil {
		return 0, false, errors.Wrap(err, "open")
	}

	ok := false
	defer func() {
		if !ok {
			_ = ops.Close(h)
		}
	}()

	if err := ops.SetBlocking(h, false); err != nil {
		return 0, false, errors.Wrap(err, "set_blocking(false)")
	}

	status, err := ops.Connect(h, addr)
	if err != nil {
		return 0, false, err
	}

	switch status {
	case socketops.ConnectOK:
		// fall through to finalize
	case socketops.ConnectInProgress:
		n, err := ops.Poll([]socketops.PollEntry{{Handle: h, WantWritable: true}}, timeout)
		if err != nil {
			return 0, false, errors.Wrap(err, "poll")
		}
		if n == 0 {
			return 0, true, errors.Errorf("connect to %s timed out after %s", addr, timeout)
		}
		if err := ops.ConnectStatus(h); err != nil {
			return 0, false, errors.Wrapf(err, "connect to %s failed", addr)
		}
	case socketops.ConnectFailed:
		return 0, false, errors.Errorf("connect to %s failed", addr)
	}

	if err := ops.SetBlocking(h, true); err != nil {
		return 0, false, errors.Wrap(err, "set_blocking(true)")
	}
	if err := ops.SetNoDelay(h, true); err != nil {
		return 0, false, errors.Wrap(err, "set TCP_NODELAY")
	}

	ok = true
	return h, false, nil
}
