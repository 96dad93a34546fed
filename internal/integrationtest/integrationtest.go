// Package integrationtest provides the server setup used in end to end tests.
package integrationtest

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/go-petr/bankist/cmd/httpserver"
	"github.com/go-petr/bankist/internal/accountrepo"
	"github.com/go-petr/bankist/pkg/configpkg"
	"github.com/go-petr/bankist/pkg/schedulepkg"
)

// Epoch is the virtual time every test server starts at.
var Epoch = time.Date(2020, time.August, 1, 9, 0, 0, 0, time.UTC)

// SetupServer returns a test server with the demo accounts seeded, a fresh
// metrics registry and a manual clock the test drives.
func SetupServer(t *testing.T) (*httpserver.Server, *schedulepkg.Manual) {
	t.Helper()

	config := configpkg.Config{
		Environement:      "test",
		SessionTimeout:    configpkg.DefaultSessionTimeout,
		LoanApprovalDelay: configpkg.DefaultLoanApprovalDelay,
		LoanApprovalRatio: configpkg.DefaultLoanApprovalRatio,
	}

	logger := zerolog.Nop()

	accounts := accountrepo.NewRepoMem()
	if err := accountrepo.Seed(logger.WithContext(context.Background()), accounts); err != nil {
		t.Fatalf("accountrepo.Seed(ctx, accounts) returned error: %v", err)
	}

	clock := schedulepkg.NewManual(Epoch)

	server, err := httpserver.New(accounts, clock, prometheus.NewRegistry(), logger, config)
	if err != nil {
		t.Fatalf(`httpserver.New(accounts, clock, registry, logger, config) returned error: %v`, err)
	}

	return server, clock
}
