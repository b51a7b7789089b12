package migrate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Target names the state Upgrade should bring the database to.
type Target string

const (
	// Heads applies all pending migrations, including out-of-order ones.
	Heads Target = "heads"
	// Latest applies pending migrations newer than the current version and
	// fails if older ones are missing.
	Latest Target = "latest"
)

// ErrInvalidTarget is returned by ParseTarget for unrecognised targets.
var ErrInvalidTarget = errors.New("invalid migration target")

// ParseTarget accepts "heads", "latest", or a positive version number.
// An empty string means Heads.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", string(Heads), "head":
		return Heads, nil
	case string(Latest):
		return Latest, nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return "", fmt.Errorf("%w: %q (want heads, latest or a version number)", ErrInvalidTarget, s)
	}
	return Target(strconv.FormatInt(v, 10)), nil
}

// Version returns the numeric version for explicit targets.
func (t Target) Version() (int64, bool) {
	if t == Heads || t == Latest {
		return 0, false
	}
	v, err := strconv.ParseInt(string(t), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (t Target) String() string {
	return string(t)
}
