package application_test

import (
	"os"
	"testing"

	"betledger/config"
)

func TestMain(m *testing.M) {
	// Set up test config once for all tests
	config.SetTestConfig(config.NewTestConfig())
	_ = config.Get()

	os.Exit(m.Run())
}
