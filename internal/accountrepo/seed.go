package accountrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/pkg/currencypkg"
)

type seedAccount struct {
	owner    string
	pin      int
	rate     string
	currency string
	locale   string
	amounts  []int64
	dates    []string
}

var demoAccounts = []seedAccount{
	{
		owner:    "Jonas Schmedtmann",
		pin:      1111,
		rate:     "1.2",
		currency: currencypkg.EUR,
		locale:   "pt-PT",
		amounts:  []int64{200, 450, -400, 3000, -650, -130, 70, 1300},
		dates: []string{
			"2019-11-18T21:31:17Z",
			"2019-12-23T07:42:02Z",
			"2020-01-28T09:15:04Z",
			"2020-04-01T10:17:24Z",
			"2020-05-08T14:11:59Z",
			"2020-05-27T17:01:17Z",
			"2020-07-11T23:36:17Z",
			"2020-07-12T10:51:36Z",
		},
	},
	{
		owner:    "Jessica Davis",
		pin:      2222,
		rate:     "1.5",
		currency: currencypkg.USD,
		locale:   "en-US",
		amounts:  []int64{5000, 3400, -150, -790, -3210, -1000, 8500, -30},
		dates: []string{
			"2019-11-01T13:15:33Z",
			"2019-11-30T09:48:16Z",
			"2019-12-25T06:04:23Z",
			"2020-01-25T14:18:46Z",
			"2020-02-05T16:33:06Z",
			"2020-04-10T14:43:26Z",
			"2020-06-25T18:49:59Z",
			"2020-07-26T12:01:20Z",
		},
	},
	{
		owner:    "Steven Thomas Williams",
		pin:      3333,
		rate:     "0.7",
		currency: currencypkg.USD,
		locale:   "en-US",
		amounts:  []int64{200, -200, 340, -300, -20, 50, 400, -460},
		dates: []string{
			"2019-10-03T08:20:11Z",
			"2019-10-21T12:05:40Z",
			"2019-12-02T17:44:09Z",
			"2020-02-14T09:30:55Z",
			"2020-03-19T11:12:03Z",
			"2020-05-02T15:58:27Z",
			"2020-06-17T19:23:48Z",
			"2020-07-30T07:41:16Z",
		},
	},
	{
		owner:    "Sarah Smith",
		pin:      4444,
		rate:     "1",
		currency: currencypkg.GBP,
		locale:   "en-GB",
		amounts:  []int64{430, 1000, 700, 50, 90},
		dates: []string{
			"2020-01-09T10:02:37Z",
			"2020-02-27T13:47:15Z",
			"2020-04-22T16:09:52Z",
			"2020-06-05T08:36:21Z",
			"2020-07-28T18:14:06Z",
		},
	},
}

// Seed loads the demo accounts into the repository.
func Seed(ctx context.Context, r *RepoMem) error {
	for _, s := range demoAccounts {
		movements := make([]domain.Movement, len(s.amounts))

		for i, a := range s.amounts {
			date, err := time.Parse(time.RFC3339, s.dates[i])
			if err != nil {
				return fmt.Errorf("seed %s: %w", s.owner, err)
			}

			movements[i] = domain.Movement{Amount: decimal.NewFromInt(a), Date: date}
		}

		rate, err := decimal.NewFromString(s.rate)
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.owner, err)
		}

		arg := domain.CreateAccountParams{
			Owner:        s.owner,
			PIN:          s.pin,
			InterestRate: rate,
			Currency:     s.currency,
			Locale:       s.locale,
			Movements:    movements,
		}

		if _, err := r.Create(ctx, arg); err != nil {
			return fmt.Errorf("seed %s: %w", s.owner, err)
		}
	}

	accounts := r.List(ctx)
	usernames := make([]string, 0, len(accounts))
	for _, a := range accounts {
		usernames = append(usernames, a.Username)
	}

	zerolog.Ctx(ctx).Info().Strs("usernames", usernames).Msg("demo accounts seeded")

	return nil
}
