package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
)

// maxNumberAttempts bounds how many sequence values an insert tries before
// giving up on a busy day.
const maxNumberAttempts = 5

// Number is an order number of the form PREFIX-YYMMDD-NNNN.
type Number struct {
	Prefix string
	Day    time.Time
	Seq    int64
}

func (n Number) String() string {
	return fmt.Sprintf("%s-%s-%04d", n.Prefix, n.Day.UTC().Format("060102"), n.Seq)
}

// Next is the following number on the same day.
func (n Number) Next() Number {
	n.Seq++
	return n
}

type orderCounter interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type orderInserter interface {
	Insert(ctx context.Context, order *models.Order) error
}

// NumberGenerator derives the next order number from today's order count.
type NumberGenerator struct {
	counter orderCounter
	prefix  string
	now     func() time.Time
}

func NewNumberGenerator(counter orderCounter, prefix string) (*NumberGenerator, error) {
	if counter == nil {
		return nil, fmt.Errorf("order counter required")
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, fmt.Errorf("order number prefix required")
	}
	return &NumberGenerator{counter: counter, prefix: prefix, now: time.Now}, nil
}

// Next returns 1 + the number of orders created since UTC midnight.
func (g *NumberGenerator) Next(ctx context.Context) (Number, error) {
	now := g.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := g.counter.CountSince(ctx, midnight)
	if err != nil {
		return Number{}, err
	}
	return Number{Prefix: g.prefix, Day: midnight, Seq: count + 1}, nil
}

// InsertNumbered stamps order with number and inserts it, moving to the next
// sequence value whenever another order already holds the number.
func InsertNumbered(ctx context.Context, store orderInserter, order *models.Order, number Number) error {
	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order.OrderNumber = number.String()
		err = store.Insert(ctx, order)
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKey(err) {
			return fmt.Errorf("insert order %s: %w", order.OrderNumber, err)
		}
		number = number.Next()
	}
	return fmt.Errorf("insert order: no free order number after %d attempts: %w", maxNumberAttempts, err)
}
