package dispatch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rutalog/dispatch-outbox/pkg/orders"
	"github.com/rutalog/dispatch-outbox/pkg/publisher"
	"github.com/rutalog/dispatch-outbox/pkg/store"
)

var (
	// ErrNoCandidates means every approved order has already been published.
	// A normal outcome, not a fault; the CLI reports it and exits non-zero.
	ErrNoCandidates = errors.New("no consolidated blocks are ready for distribution")
	// ErrInvalidSelection means the operator never produced a usable choice,
	// or the chosen order vanished between listing and publishing.
	ErrInvalidSelection = errors.New("invalid selection")
)

const defaultMaxAttempts = 3

// Flow drives one interactive publish: load candidates, subtract the
// published set, prompt the operator, publish the chosen order.
type Flow struct {
	orders      orders.Repository
	outbox      store.OutboxStore
	publisher   *publisher.EventPublisher
	in          *bufio.Reader
	out         io.Writer
	maxAttempts int
}

func NewFlow(repo orders.Repository, outbox store.OutboxStore, pub *publisher.EventPublisher, in io.Reader, out io.Writer) *Flow {
	return &Flow{
		orders:      repo,
		outbox:      outbox,
		publisher:   pub,
		in:          bufio.NewReader(in),
		out:         out,
		maxAttempts: defaultMaxAttempts,
	}
}

func (f *Flow) Run(ctx context.Context) error {
	published, err := f.outbox.ListPublishedOrderIDs(ctx)
	if err != nil {
		return err
	}

	approved, err := f.orders.FindByStatus(ctx, orders.StatusApproved)
	if err != nil {
		return err
	}

	var candidates []orders.Order
	for _, order := range approved {
		if _, ok := published[order.ID]; ok {
			continue
		}
		candidates = append(candidates, order)
	}

	if len(candidates) == 0 {
		return ErrNoCandidates
	}

	selected, err := f.selectCandidate(candidates)
	if err != nil {
		return err
	}

	// Re-fetch in case another actor consumed the order meanwhile.
	order, err := f.orders.Find(ctx, selected.ID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: the selected block no longer exists", ErrInvalidSelection)
	}

	payload := order.ConsolidatedPayload()
	if err := f.publisher.Publish(ctx, publisher.EventTypeBlocksReadyDistribution, payload); err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return err
	}
	confirmation := "published"
	if f.publisher.Staged() {
		confirmation = "staged for relay"
	}
	fmt.Fprintf(f.out, "Event %q %s\n%s\n", publisher.EventTypeBlocksReadyDistribution, confirmation, pretty)

	return nil
}

// selectCandidate prompts until the operator picks a valid index. Blank input
// defaults to 0; anything unparsable or out of range re-prompts.
func (f *Flow) selectCandidate(candidates []orders.Order) (*orders.Order, error) {
	fmt.Fprintln(f.out, "Select a consolidated block by number (default 0):")
	for i, order := range candidates {
		fmt.Fprintf(f.out, "  [%d] %s\n", i, order.Label())
	}

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		fmt.Fprint(f.out, "> ")

		line, readErr := f.in.ReadString('\n')
		if readErr != nil && line == "" {
			// input exhausted, nothing more to re-prompt for
			break
		}
		choice := strings.TrimSpace(line)

		if choice == "" {
			return &candidates[0], nil
		}

		index, err := strconv.Atoi(choice)
		if err == nil && index >= 0 && index < len(candidates) {
			return &candidates[index], nil
		}

		fmt.Fprintf(f.out, "Option %q is not valid.\n", choice)

		if readErr != nil {
			break
		}
	}

	return nil, ErrInvalidSelection
}
