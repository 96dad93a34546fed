package sessionservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/go-petr/bankist/internal/accountrepo"
	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/internal/ledger"
	"github.com/go-petr/bankist/pkg/configpkg"
	"github.com/go-petr/bankist/pkg/schedulepkg"
)

var epoch = time.Date(2020, time.August, 1, 9, 0, 0, 0, time.UTC)

type fakeRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *fakeRecorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *fakeRecorder) SessionStarted()            { r.add("started") }
func (r *fakeRecorder) SessionEnded(reason string) { r.add("ended:" + reason) }
func (r *fakeRecorder) Transfer(status string)     { r.add("transfer:" + status) }
func (r *fakeRecorder) Loan(status string)         { r.add("loan:" + status) }
func (r *fakeRecorder) AccountClosed()             { r.add("closed") }

func (r *fakeRecorder) count(e string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, got := range r.events {
		if got == e {
			n++
		}
	}

	return n
}

type fixture struct {
	service   *Service
	repo      *accountrepo.RepoMem
	scheduler *schedulepkg.Manual
	recorder  *fakeRecorder
}

func setup(t *testing.T) fixture {
	t.Helper()

	repo := accountrepo.NewRepoMem()
	if err := accountrepo.Seed(context.Background(), repo); err != nil {
		t.Fatalf("accountrepo.Seed() returned error: %v", err)
	}

	config := configpkg.Config{
		SessionTimeout:    5 * time.Minute,
		LoanApprovalDelay: 1500 * time.Millisecond,
		LoanApprovalRatio: 0.1,
	}

	scheduler := schedulepkg.NewManual(epoch)
	recorder := &fakeRecorder{}

	return fixture{
		service:   New(repo, config, scheduler, recorder),
		repo:      repo,
		scheduler: scheduler,
		recorder:  recorder,
	}
}

func (f fixture) login(t *testing.T, username string, pin int) domain.SessionState {
	t.Helper()

	st, err := f.service.Login(context.Background(), username, pin)
	if err != nil {
		t.Fatalf("Login(%q, %d) returned error: %v", username, pin, err)
	}

	return st
}

func (f fixture) balance(t *testing.T, username string) decimal.Decimal {
	t.Helper()

	acc, err := f.repo.Get(context.Background(), username)
	if err != nil {
		t.Fatalf("repo.Get(%q) returned error: %v", username, err)
	}

	return ledger.Balance(*acc)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		username  string
		pin       int
		wantError error
	}{
		{name: "OK", username: "js", pin: 1111},
		{name: "WrongPIN", username: "js", pin: 1112, wantError: domain.ErrInvalidCredentials},
		{name: "UnknownUser", username: "xx", pin: 1111, wantError: domain.ErrInvalidCredentials},
		{name: "UsernameIsCaseSensitive", username: "JS", pin: 1111, wantError: domain.ErrInvalidCredentials},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)

			st, err := f.service.Login(context.Background(), tc.username, tc.pin)
			if err != tc.wantError {
				t.Fatalf("Login(%q, %d) returned error %v, want %v", tc.username, tc.pin, err, tc.wantError)
			}

			if tc.wantError != nil {
				if st.LoggedIn || f.service.Active() {
					t.Errorf("Login(%q, %d) opened a session", tc.username, tc.pin)
				}

				return
			}

			want := domain.SessionState{
				LoggedIn:         true,
				ID:               st.ID,
				Owner:            "Jonas Schmedtmann",
				Username:         "js",
				Currency:         "EUR",
				Locale:           "pt-PT",
				SecondsRemaining: 300,
				Movements:        st.Movements,
				Summary: domain.Summary{
					Balance:  dec("3840"),
					In:       dec("5020"),
					Out:      dec("1180"),
					Interest: dec("59.4"),
				},
			}
			if diff := cmp.Diff(want, st); diff != "" {
				t.Errorf("Login() state mismatch (-want +got):\n%s", diff)
			}

			if len(st.Movements) != 8 {
				t.Errorf("len(Movements) = %d, want 8", len(st.Movements))
			}
		})
	}
}

func TestFailedLoginKeepsSession(t *testing.T) {
	t.Parallel()

	f := setup(t)
	before := f.login(t, "js", 1111)

	if _, err := f.service.Login(context.Background(), "jd", 9999); err != domain.ErrInvalidCredentials {
		t.Fatalf("Login(jd, 9999) returned error %v, want %v", err, domain.ErrInvalidCredentials)
	}

	after := f.service.State(context.Background())
	if after.ID != before.ID || after.Username != "js" {
		t.Errorf("State() = %+v, want the session of js", after)
	}
}

func TestReloginReplacesSession(t *testing.T) {
	t.Parallel()

	f := setup(t)
	first := f.login(t, "js", 1111)
	second := f.login(t, "jd", 2222)

	if first.ID == second.ID {
		t.Error("Login() reused the session id")
	}

	if got := f.recorder.count("ended:" + EndReplace); got != 1 {
		t.Errorf("replaced sessions = %d, want 1", got)
	}

	// Only the countdown of the new session is scheduled.
	if got := f.scheduler.Pending(); got != 1 {
		t.Errorf("scheduler.Pending() = %d, want 1", got)
	}
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		to        string
		amount    string
		wantError error
	}{
		{name: "OK", to: "jd", amount: "100"},
		{name: "WholeBalance", to: "jd", amount: "3840"},
		{name: "NegativeAmount", to: "jd", amount: "-50", wantError: domain.ErrInvalidAmount},
		{name: "ZeroAmount", to: "jd", amount: "0", wantError: domain.ErrInvalidAmount},
		{name: "NegativeCents", to: "jd", amount: "-0.01", wantError: domain.ErrInvalidAmount},
		{name: "UnknownRecipient", to: "zz", amount: "100", wantError: domain.ErrUnknownRecipient},
		{name: "SelfTransfer", to: "js", amount: "100", wantError: domain.ErrSelfTransfer},
		{name: "InsufficientBalance", to: "jd", amount: "3840.01", wantError: domain.ErrInsufficientBalance},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)
			f.login(t, "js", 1111)
			f.scheduler.Advance(10 * time.Second)

			amount := dec(tc.amount)

			st, err := f.service.Transfer(context.Background(), tc.to, amount)
			if err != tc.wantError {
				t.Fatalf("Transfer(%q, %v) returned error %v, want %v", tc.to, amount, err, tc.wantError)
			}

			if tc.wantError != nil {
				if got := f.balance(t, "js"); !got.Equal(dec("3840")) {
					t.Errorf("sender balance = %v, want 3840", got)
				}

				if st.SecondsRemaining != 290 {
					t.Errorf("SecondsRemaining = %d, want 290", st.SecondsRemaining)
				}

				return
			}

			if got, want := f.balance(t, "js"), dec("3840").Sub(amount); !got.Equal(want) {
				t.Errorf("sender balance = %v, want %v", got, want)
			}

			if got, want := f.balance(t, "jd"), dec("11720").Add(amount); !got.Equal(want) {
				t.Errorf("recipient balance = %v, want %v", got, want)
			}

			last := st.Movements[len(st.Movements)-1]
			want := domain.Movement{Amount: amount.Neg(), Date: epoch.Add(10 * time.Second)}
			if diff := cmp.Diff(want, last); diff != "" {
				t.Errorf("last movement mismatch (-want +got):\n%s", diff)
			}

			if st.SecondsRemaining != 300 {
				t.Errorf("SecondsRemaining = %d, want 300", st.SecondsRemaining)
			}
		})
	}
}

func TestSelfTransferWithSufficientBalance(t *testing.T) {
	t.Parallel()

	f := setup(t)

	acc, err := f.repo.Create(context.Background(), domain.CreateAccountParams{
		Owner:        "John Smith",
		PIN:          5555,
		InterestRate: dec("1"),
		Currency:     "USD",
		Locale:       "en-US",
		Movements:    []domain.Movement{{Amount: dec("100"), Date: epoch}},
	})
	if err != nil {
		t.Fatalf("repo.Create() returned error: %v", err)
	}

	f.login(t, acc.Username, 5555)

	if _, err := f.service.Transfer(context.Background(), acc.Username, dec("100")); err != domain.ErrSelfTransfer {
		t.Errorf("Transfer(%q, 100) returned error %v, want %v", acc.Username, err, domain.ErrSelfTransfer)
	}
}

func TestOperationsRequireSession(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := context.Background()

	if _, err := f.service.Transfer(ctx, "jd", dec("1")); err != domain.ErrNoActiveSession {
		t.Errorf("Transfer() returned error %v, want %v", err, domain.ErrNoActiveSession)
	}

	if _, err := f.service.RequestLoan(ctx, dec("1")); err != domain.ErrNoActiveSession {
		t.Errorf("RequestLoan() returned error %v, want %v", err, domain.ErrNoActiveSession)
	}

	if err := f.service.CloseAccount(ctx, "js", 1111); err != domain.ErrNoActiveSession {
		t.Errorf("CloseAccount() returned error %v, want %v", err, domain.ErrNoActiveSession)
	}

	if _, err := f.service.ToggleSort(ctx); err != domain.ErrNoActiveSession {
		t.Errorf("ToggleSort() returned error %v, want %v", err, domain.ErrNoActiveSession)
	}

	if _, err := f.service.Tick(ctx); err != domain.ErrNoActiveSession {
		t.Errorf("Tick() returned error %v, want %v", err, domain.ErrNoActiveSession)
	}

	if err := f.service.Logout(ctx); err != domain.ErrNoActiveSession {
		t.Errorf("Logout() returned error %v, want %v", err, domain.ErrNoActiveSession)
	}

	if st := f.service.State(ctx); st.LoggedIn {
		t.Errorf("State().LoggedIn = true, want false")
	}
}

func TestTickLogsOutAtZero(t *testing.T) {
	t.Parallel()

	f := setup(t)
	f.login(t, "js", 1111)

	ctx := context.Background()

	for i := 1; i < 300; i++ {
		st, err := f.service.Tick(ctx)
		if err != nil {
			t.Fatalf("Tick() #%d returned error: %v", i, err)
		}

		if !st.LoggedIn || st.SecondsRemaining != 300-i {
			t.Fatalf("Tick() #%d state = (%v, %d), want (true, %d)", i, st.LoggedIn, st.SecondsRemaining, 300-i)
		}
	}

	st, err := f.service.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick() #300 returned error: %v", err)
	}

	if st.LoggedIn || f.service.Active() {
		t.Fatal("Tick() #300 did not log out")
	}

	if got := f.recorder.count("ended:" + EndExpired); got != 1 {
		t.Errorf("expired sessions = %d, want 1", got)
	}

	if _, err := f.service.Tick(ctx); err != domain.ErrNoActiveSession {
		t.Errorf("Tick() after logout returned error %v, want %v", err, domain.ErrNoActiveSession)
	}
}

func TestCountdownDrivenByScheduler(t *testing.T) {
	t.Parallel()

	f := setup(t)
	f.login(t, "js", 1111)

	f.scheduler.Advance(299 * time.Second)

	st := f.service.State(context.Background())
	if !st.LoggedIn || st.SecondsRemaining != 1 {
		t.Fatalf("State() = (%v, %d), want (true, 1)", st.LoggedIn, st.SecondsRemaining)
	}

	f.scheduler.Advance(time.Second)

	if f.service.Active() {
		t.Fatal("session still active after 300 seconds")
	}

	if got := f.scheduler.Pending(); got != 0 {
		t.Errorf("scheduler.Pending() = %d, want 0", got)
	}
}

func TestActivityResetsCountdown(t *testing.T) {
	t.Parallel()

	f := setup(t)
	f.login(t, "js", 1111)

	f.scheduler.Advance(200 * time.Second)

	if _, err := f.service.Transfer(context.Background(), "jd", dec("10")); err != nil {
		t.Fatalf("Transfer() returned error: %v", err)
	}

	f.scheduler.Advance(200 * time.Second)

	st := f.service.State(context.Background())
	if !st.LoggedIn || st.SecondsRemaining != 100 {
		t.Fatalf("State() = (%v, %d), want (true, 100)", st.LoggedIn, st.SecondsRemaining)
	}

	if got := f.scheduler.Pending(); got != 1 {
		t.Errorf("scheduler.Pending() = %d, want a single countdown", got)
	}
}

func TestToggleSort(t *testing.T) {
	t.Parallel()

	f := setup(t)
	f.login(t, "js", 1111)
	f.scheduler.Advance(5 * time.Second)

	ctx := context.Background()

	st, err := f.service.ToggleSort(ctx)
	if err != nil {
		t.Fatalf("ToggleSort() returned error: %v", err)
	}

	if !st.Sorted {
		t.Fatal("ToggleSort() Sorted = false, want true")
	}

	var got []string
	for _, m := range st.Movements {
		got = append(got, m.Amount.String())
	}

	want := []string{"-650", "-400", "-130", "70", "200", "450", "1300", "3000"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted movements mismatch (-want +got):\n%s", diff)
	}

	if st.SecondsRemaining != 295 {
		t.Errorf("SecondsRemaining = %d, want 295", st.SecondsRemaining)
	}

	st, err = f.service.ToggleSort(ctx)
	if err != nil {
		t.Fatalf("ToggleSort() returned error: %v", err)
	}

	if st.Sorted || !st.Movements[0].Amount.Equal(dec("200")) {
		t.Errorf("second ToggleSort() did not restore chronological order")
	}
}

func TestRequestLoan(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		amount    string
		wantError error
		wantLoan  string
	}{
		{name: "OK", amount: "1000", wantLoan: "1000"},
		{name: "Floored", amount: "2500.99", wantLoan: "2500"},
		{name: "LargestMovementCoversTenPercent", amount: "30000", wantLoan: "30000"},
		{name: "NotApproved", amount: "30001", wantError: domain.ErrLoanNotApproved},
		{name: "BelowOne", amount: "0.99", wantError: domain.ErrInvalidAmount},
		{name: "Negative", amount: "-100", wantError: domain.ErrInvalidAmount},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)
			f.login(t, "js", 1111)

			st, err := f.service.RequestLoan(context.Background(), dec(tc.amount))
			if err != tc.wantError {
				t.Fatalf("RequestLoan(%s) returned error %v, want %v", tc.amount, err, tc.wantError)
			}

			if tc.wantError != nil {
				f.scheduler.Advance(2 * time.Second)

				if got := f.balance(t, "js"); !got.Equal(dec("3840")) {
					t.Errorf("balance = %v, want 3840", got)
				}

				return
			}

			if st.PendingLoans != 1 {
				t.Errorf("PendingLoans = %d, want 1", st.PendingLoans)
			}

			f.scheduler.Advance(time.Second)

			if got := f.balance(t, "js"); !got.Equal(dec("3840")) {
				t.Errorf("balance before the delay = %v, want 3840", got)
			}

			f.scheduler.Advance(500 * time.Millisecond)

			if got, want := f.balance(t, "js"), dec("3840").Add(dec(tc.wantLoan)); !got.Equal(want) {
				t.Errorf("balance after the delay = %v, want %v", got, want)
			}

			st = f.service.State(context.Background())
			if st.PendingLoans != 0 || st.SecondsRemaining != 300 {
				t.Errorf("State() = (pending %d, seconds %d), want (0, 300)", st.PendingLoans, st.SecondsRemaining)
			}

			last := st.Movements[len(st.Movements)-1]
			if !last.Date.Equal(epoch.Add(1500 * time.Millisecond)) {
				t.Errorf("loan date = %v, want %v", last.Date, epoch.Add(1500*time.Millisecond))
			}
		})
	}
}

func TestPendingLoanCancelledWhenSessionEnds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		end  func(t *testing.T, f fixture)
	}{
		{
			name: "Logout",
			end: func(t *testing.T, f fixture) {
				if err := f.service.Logout(context.Background()); err != nil {
					t.Fatalf("Logout() returned error: %v", err)
				}
			},
		},
		{
			name: "Relogin",
			end: func(t *testing.T, f fixture) {
				f.login(t, "js", 1111)
			},
		},
		{
			name: "CloseAccount",
			end: func(t *testing.T, f fixture) {
				if err := f.service.CloseAccount(context.Background(), "js", 1111); err != nil {
					t.Fatalf("CloseAccount() returned error: %v", err)
				}
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)
			f.login(t, "js", 1111)

			if _, err := f.service.RequestLoan(context.Background(), dec("1000")); err != nil {
				t.Fatalf("RequestLoan(1000) returned error: %v", err)
			}

			acc, err := f.repo.Get(context.Background(), "js")
			if err != nil {
				t.Fatalf(`repo.Get("js") returned error: %v`, err)
			}

			tc.end(t, f)
			f.scheduler.Advance(5 * time.Second)

			if got := ledger.Balance(*acc); !got.Equal(dec("3840")) {
				t.Errorf("balance = %v, want 3840", got)
			}

			if got := f.recorder.count("loan:cancelled"); got != 1 {
				t.Errorf("cancelled loans = %d, want 1", got)
			}

			if got := f.recorder.count("loan:credited"); got != 0 {
				t.Errorf("credited loans = %d, want 0", got)
			}
		})
	}
}

func TestLoanCallbackOfEndedSessionIsIgnored(t *testing.T) {
	t.Parallel()

	f := setup(t)
	first := f.login(t, "js", 1111)

	// A callback that already fired races with the end of its session.
	f.service.mu.Lock()
	loanID := first.ID
	f.service.current.loans[loanID] = f.scheduler.AfterFunc(time.Hour, func() {})
	f.service.mu.Unlock()

	f.login(t, "js", 1111)
	f.service.creditLoan(first.ID, loanID, dec("500"))

	if got := f.balance(t, "js"); !got.Equal(dec("3840")) {
		t.Errorf("balance = %v, want 3840", got)
	}
}

func TestCloseAccount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		username  string
		pin       int
		wantError error
	}{
		{name: "OK", username: "js", pin: 1111},
		{name: "WrongPIN", username: "js", pin: 1234, wantError: domain.ErrCredentialMismatch},
		{name: "OtherAccount", username: "jd", pin: 2222, wantError: domain.ErrCredentialMismatch},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)
			f.login(t, "js", 1111)

			ctx := context.Background()

			err := f.service.CloseAccount(ctx, tc.username, tc.pin)
			if err != tc.wantError {
				t.Fatalf("CloseAccount(%q, %d) returned error %v, want %v", tc.username, tc.pin, err, tc.wantError)
			}

			accounts := len(f.repo.List(ctx))

			if tc.wantError != nil {
				if accounts != 4 {
					t.Errorf("len(repo.List()) = %d, want 4", accounts)
				}

				if !f.service.Active() {
					t.Error("session ended after a failed close")
				}

				return
			}

			if accounts != 3 {
				t.Errorf("len(repo.List()) = %d, want 3", accounts)
			}

			if _, err := f.repo.Get(ctx, "js"); err != domain.ErrAccountNotFound {
				t.Errorf(`repo.Get("js") returned error %v, want %v`, err, domain.ErrAccountNotFound)
			}

			if f.service.Active() {
				t.Error("session still active after closing the account")
			}

			if _, err := f.service.Login(ctx, "js", 1111); err != domain.ErrInvalidCredentials {
				t.Errorf("Login() of a closed account returned error %v, want %v", err, domain.ErrInvalidCredentials)
			}
		})
	}
}

func TestTransferToClosedAccount(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := context.Background()

	f.login(t, "ss", 4444)
	if err := f.service.CloseAccount(ctx, "ss", 4444); err != nil {
		t.Fatalf("CloseAccount() returned error: %v", err)
	}

	f.login(t, "js", 1111)
	if _, err := f.service.Transfer(ctx, "ss", dec("10")); err != domain.ErrUnknownRecipient {
		t.Errorf("Transfer() to a closed account returned error %v, want %v", err, domain.ErrUnknownRecipient)
	}
}
