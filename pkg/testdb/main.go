package testdb

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
)

var (
	sharedMu sync.Mutex
	shared   *Fixture
)

// Main is a TestMain body: it resets the database once, runs the tests and
// exits. Without a configured database the tests run and database tests skip.
func Main(m *testing.M, opts ...Option) {
	os.Exit(Run(m, opts...))
}

// Run is Main without the os.Exit. It returns the exit code for the run,
// 1 when the schema reset fails.
func Run(m *testing.M, opts ...Option) int {
	if !flag.Parsed() {
		flag.Parse()
	}

	f := New(opts...)
	sharedMu.Lock()
	shared = f
	sharedMu.Unlock()

	if err := f.Setup(context.Background()); err != nil {
		if !errors.Is(err, ErrNoDatabaseURL) {
			fmt.Fprintf(os.Stderr, "testdb: database setup failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "testdb: %v; database tests will be skipped\n", err)
	}

	code := m.Run()

	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "testdb: %v\n", err)
	}
	return code
}

// Shared returns the fixture installed by Main, or a default one created on
// first use when Main is not in play.
func Shared() *Fixture {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New()
	}
	return shared
}

// Open opens a rolled-back session on the shared fixture for t and closes
// it when t finishes.
func Open(t testing.TB) *Session {
	t.Helper()
	return Shared().Session(t)
}
