// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	ServerAddress     string        `mapstructure:"SERVER_ADDRESS"`
	Environement      string        `mapstructure:"GO_ENV"`
	SessionTimeout    time.Duration `mapstructure:"SESSION_TIMEOUT"`
	LoanApprovalDelay time.Duration `mapstructure:"LOAN_APPROVAL_DELAY"`
	LoanApprovalRatio float64       `mapstructure:"LOAN_APPROVAL_RATIO"`
}

// Defaults of the dashboard rules.
const (
	DefaultSessionTimeout    = 5 * time.Minute
	DefaultLoanApprovalDelay = 1500 * time.Millisecond
	DefaultLoanApprovalRatio = 0.1
)

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("SESSION_TIMEOUT", DefaultSessionTimeout)
	v.SetDefault("LOAN_APPROVAL_DELAY", DefaultLoanApprovalDelay)
	v.SetDefault("LOAN_APPROVAL_RATIO", DefaultLoanApprovalRatio)

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// SessionSeconds returns the countdown start value in whole seconds.
func (c Config) SessionSeconds() int {
	if c.SessionTimeout < time.Second {
		return int(DefaultSessionTimeout / time.Second)
	}

	return int(c.SessionTimeout / time.Second)
}

// LoanRatio returns the share of a loan a single movement has to cover.
func (c Config) LoanRatio() decimal.Decimal {
	if c.LoanApprovalRatio <= 0 {
		return decimal.NewFromFloat(DefaultLoanApprovalRatio)
	}

	return decimal.NewFromFloat(c.LoanApprovalRatio)
}

// LoanDelay returns the time between a loan approval and its credit.
func (c Config) LoanDelay() time.Duration {
	if c.LoanApprovalDelay <= 0 {
		return DefaultLoanApprovalDelay
	}

	return c.LoanApprovalDelay
}
