// Package sessionservice manages the dashboard session: login, money
// movements of the logged in account and the inactivity countdown.
package sessionservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/internal/ledger"
	"github.com/go-petr/bankist/pkg/configpkg"
	"github.com/go-petr/bankist/pkg/schedulepkg"
)

// Reasons a session ends.
const (
	EndLogout  = "logout"
	EndExpired = "expired"
	EndClosed  = "closed"
	EndReplace = "replaced"
)

// Repo provides data access layer interface needed by session service layer.
type Repo interface {
	Get(ctx context.Context, username string) (*domain.Account, error)
	Delete(ctx context.Context, username string) error
}

// Recorder collects session activity metrics.
type Recorder interface {
	SessionStarted()
	SessionEnded(reason string)
	Transfer(status string)
	Loan(status string)
	AccountClosed()
}

// Service facilitates session service layer logic.
//
// At most one session is active at a time. All methods are safe to call
// from timer callbacks and request handlers concurrently.
type Service struct {
	repo      Repo
	scheduler schedulepkg.Scheduler
	recorder  Recorder

	timeout   int
	loanDelay time.Duration
	loanRatio decimal.Decimal

	mu      sync.Mutex
	current *session
}

type session struct {
	id               uuid.UUID
	account          *domain.Account
	secondsRemaining int
	sorted           bool
	countdown        schedulepkg.Task
	generation       uint64
	loans            map[uuid.UUID]schedulepkg.Task
	logger           *zerolog.Logger
}

// New returns session service struct to manage the dashboard session.
func New(repo Repo, config configpkg.Config, scheduler schedulepkg.Scheduler, recorder Recorder) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		recorder:  recorder,
		timeout:   config.SessionSeconds(),
		loanDelay: config.LoanDelay(),
		loanRatio: config.LoanRatio(),
	}
}

// Login opens a session for the account with the given username and pin.
//
// A failed login leaves the current session untouched. A successful one
// replaces it.
func (s *Service) Login(ctx context.Context, username string, pin int) (domain.SessionState, error) {
	l := zerolog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.repo.Get(ctx, username)
	if err != nil || acc.PIN != pin {
		l.Info().Str("username", username).Err(domain.ErrInvalidCredentials).Send()
		return domain.SessionState{}, domain.ErrInvalidCredentials
	}

	if s.current != nil {
		s.end(EndReplace)
	}

	sess := &session{
		id:      uuid.New(),
		account: acc,
		loans:   make(map[uuid.UUID]schedulepkg.Task),
		logger:  l,
	}
	s.current = sess
	s.restartCountdown()
	s.recorder.SessionStarted()

	l.Info().Str("username", acc.Username).Str("session_id", sess.id.String()).Msg("session started")

	return s.state(), nil
}

// Logout ends the current session.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNoActiveSession
	}

	zerolog.Ctx(ctx).Info().Str("username", s.current.account.Username).Msg("logout")
	s.end(EndLogout)

	return nil
}

// Transfer moves amount from the logged in account to the recipient.
func (s *Service) Transfer(ctx context.Context, toUsername string, amount decimal.Decimal) (domain.SessionState, error) {
	l := zerolog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.SessionState{}, domain.ErrNoActiveSession
	}

	if err := s.validTransfer(ctx, toUsername, amount); err != nil {
		l.Info().Str("to", toUsername).Str("amount", amount.String()).Err(err).Send()
		s.recorder.Transfer(status(err))

		return s.state(), err
	}

	// The recipient was resolved by validTransfer.
	to, _ := s.repo.Get(ctx, toUsername)
	now := s.scheduler.Now()

	ledger.RecordMovement(s.current.account, amount.Neg(), now)
	ledger.RecordMovement(to, amount, now)
	s.restartCountdown()
	s.recorder.Transfer("ok")

	l.Info().
		Str("from", s.current.account.Username).
		Str("to", to.Username).
		Str("amount", amount.String()).
		Msg("transfer")

	return s.state(), nil
}

func (s *Service) validTransfer(ctx context.Context, toUsername string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	to, err := s.repo.Get(ctx, toUsername)
	if err != nil {
		return domain.ErrUnknownRecipient
	}

	from := s.current.account
	if to == from || to.Username == from.Username {
		return domain.ErrSelfTransfer
	}

	if ledger.Balance(*from).LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	return nil
}

// RequestLoan approves a loan for the logged in account and credits it
// after the loan delay.
//
// The loan is approved when a single past movement covers the configured
// share of the loan. The pending credit is dropped if the session ends first.
func (s *Service) RequestLoan(ctx context.Context, amount decimal.Decimal) (domain.SessionState, error) {
	l := zerolog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.SessionState{}, domain.ErrNoActiveSession
	}

	loan := amount.Floor()
	if !loan.IsPositive() {
		l.Info().Str("amount", amount.String()).Err(domain.ErrInvalidAmount).Send()
		s.recorder.Loan(status(domain.ErrInvalidAmount))

		return s.state(), domain.ErrInvalidAmount
	}

	if !ledger.HasMovementAtLeast(*s.current.account, loan.Mul(s.loanRatio)) {
		l.Info().Str("amount", loan.String()).Err(domain.ErrLoanNotApproved).Send()
		s.recorder.Loan(status(domain.ErrLoanNotApproved))

		return s.state(), domain.ErrLoanNotApproved
	}

	sessID, loanID := s.current.id, uuid.New()
	s.current.loans[loanID] = s.scheduler.AfterFunc(s.loanDelay, func() {
		s.creditLoan(sessID, loanID, loan)
	})
	s.restartCountdown()
	s.recorder.Loan("approved")

	l.Info().
		Str("username", s.current.account.Username).
		Str("amount", loan.String()).
		Str("loan_id", loanID.String()).
		Msg("loan approved")

	return s.state(), nil
}

func (s *Service) creditLoan(sessID, loanID uuid.UUID, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current
	if sess == nil || sess.id != sessID {
		return
	}

	if _, ok := sess.loans[loanID]; !ok {
		return
	}
	delete(sess.loans, loanID)

	ctx := sess.logger.WithContext(context.Background())
	if acc, err := s.repo.Get(ctx, sess.account.Username); err != nil || acc != sess.account {
		sess.logger.Warn().Str("loan_id", loanID.String()).Msg("loan dropped, account is gone")
		s.recorder.Loan("dropped")

		return
	}

	ledger.RecordMovement(sess.account, amount, s.scheduler.Now())
	s.restartCountdown()
	s.recorder.Loan("credited")

	sess.logger.Info().
		Str("username", sess.account.Username).
		Str("amount", amount.String()).
		Str("loan_id", loanID.String()).
		Msg("loan credited")
}

// CloseAccount deletes the logged in account and ends the session.
//
// The username and pin must be those of the logged in account.
func (s *Service) CloseAccount(ctx context.Context, username string, pin int) error {
	l := zerolog.Ctx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNoActiveSession
	}

	acc := s.current.account
	if acc.Username != username || acc.PIN != pin {
		l.Info().Str("username", username).Err(domain.ErrCredentialMismatch).Send()
		return domain.ErrCredentialMismatch
	}

	if err := s.repo.Delete(ctx, acc.Username); err != nil {
		l.Error().Err(err).Send()
		return err
	}

	s.recorder.AccountClosed()
	s.end(EndClosed)

	l.Info().Str("username", acc.Username).Msg("account closed")

	return nil
}

// ToggleSort flips between chronological and amount ordered movements.
func (s *Service) ToggleSort(ctx context.Context) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.SessionState{}, domain.ErrNoActiveSession
	}

	s.current.sorted = !s.current.sorted

	return s.state(), nil
}

// Tick counts the session down by one second and logs out when the
// countdown reaches zero.
func (s *Service) Tick(ctx context.Context) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.SessionState{}, domain.ErrNoActiveSession
	}

	s.tick()

	return s.state(), nil
}

func (s *Service) tickSession(id uuid.UUID, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.id != id || s.current.generation != generation {
		return
	}

	s.tick()
}

func (s *Service) tick() {
	s.current.secondsRemaining--
	if s.current.secondsRemaining > 0 {
		return
	}

	s.current.logger.Info().Str("username", s.current.account.Username).Msg("session expired")
	s.end(EndExpired)
}

// State returns the current session snapshot.
func (s *Service) State(ctx context.Context) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state()
}

// Active reports whether somebody is logged in.
func (s *Service) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current != nil
}

// restartCountdown resets the countdown and makes sure a single countdown
// task runs. Ticks of a replaced countdown are ignored even when they were
// already waiting for mu. Callers hold mu.
func (s *Service) restartCountdown() {
	sess := s.current

	if sess.countdown != nil {
		sess.countdown.Stop()
	}

	sess.secondsRemaining = s.timeout
	sess.generation++
	id, generation := sess.id, sess.generation
	sess.countdown = s.scheduler.Every(time.Second, func() {
		s.tickSession(id, generation)
	})
}

// end stops the countdown and the pending loans and drops the session.
// Callers hold mu.
func (s *Service) end(reason string) {
	sess := s.current

	if sess.countdown != nil {
		sess.countdown.Stop()
	}

	for id, task := range sess.loans {
		if task.Stop() {
			sess.logger.Info().Str("loan_id", id.String()).Msg("pending loan cancelled")
			s.recorder.Loan("cancelled")
		}
	}

	s.current = nil
	s.recorder.SessionEnded(reason)
}

// state builds the snapshot of the current session. Callers hold mu.
func (s *Service) state() domain.SessionState {
	sess := s.current
	if sess == nil {
		return domain.SessionState{}
	}

	acc := sess.account

	movements := make([]domain.Movement, len(acc.Movements))
	copy(movements, acc.Movements)

	if sess.sorted {
		movements = ledger.SortedView(*acc, true)
	}

	return domain.SessionState{
		LoggedIn:         true,
		ID:               sess.id,
		Owner:            acc.Owner,
		Username:         acc.Username,
		Currency:         acc.Currency,
		Locale:           acc.Locale,
		SecondsRemaining: sess.secondsRemaining,
		Sorted:           sess.sorted,
		Movements:        movements,
		Summary:          ledger.Summarize(*acc),
		PendingLoans:     len(sess.loans),
	}
}

func status(err error) string {
	switch err {
	case domain.ErrInvalidAmount:
		return "invalid_amount"
	case domain.ErrUnknownRecipient:
		return "unknown_recipient"
	case domain.ErrSelfTransfer:
		return "self_transfer"
	case domain.ErrInsufficientBalance:
		return "insufficient_balance"
	case domain.ErrLoanNotApproved:
		return "not_approved"
	}

	return "error"
}
