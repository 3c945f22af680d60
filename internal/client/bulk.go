package client

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tomek7667/emsboard/internal/domain"
)

// SaveMonitoredYear posts every month of a baseline that carries data, in
// parallel, and returns how many months were stored. A failed month does not
// stop the others; the first failure is returned with the count.
func (c *Client) SaveMonitoredYear(ctx context.Context, baselineID int64, months map[int]domain.MonthData) (int, error) {
	var inputs []domain.MonitoredInput
	for _, month := range sortedMonths(months) {
		in := domain.MonitoredInput{
			BaselineID:        baselineID,
			Month:             month,
			Factors:           months[month].Factors,
			ActualConsumption: months[month].ActualConsumption,
		}
		if in.HasData() {
			inputs = append(inputs, in)
		}
	}
	return fanOut(c.Parallel, inputs, func(in domain.MonitoredInput) error {
		return c.SaveMonitored(ctx, in)
	})
}

// SaveEnpiYear posts every month that has a target, numerator or
// denominator value and returns how many months were stored.
func (c *Client) SaveEnpiYear(ctx context.Context, enpiID int64, year int, rows []domain.EnpiDataInput) (int, error) {
	var inputs []domain.EnpiDataInput
	for _, in := range rows {
		if in.TargetValue.Valid || in.NumeratorValue.Valid || in.DenominatorValue.Valid {
			inputs = append(inputs, in)
		}
	}
	return fanOut(c.Parallel, inputs, func(in domain.EnpiDataInput) error {
		return c.SaveEnpiMonth(ctx, enpiID, year, in)
	})
}

func fanOut[T any](limit int, inputs []T, save func(T) error) (int, error) {
	if len(inputs) == 0 {
		return 0, errNothingToSave
	}
	var (
		g     errgroup.Group
		saved atomic.Int64
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, in := range inputs {
		g.Go(func() error {
			if err := save(in); err != nil {
				return err
			}
			saved.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(saved.Load()), err
}

func sortedMonths(months map[int]domain.MonthData) []int {
	keys := make([]int, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Ints(keys)
	return keys
}
