package scansim

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/absensi/internal/adapters/repository"
)

// ErrNoTokens is returned when there is nothing to scan.
var ErrNoTokens = errors.New("no tokens to scan")

// LoadTokens reads one token per line. Blank lines and lines starting with
// '#' are skipped.
func LoadTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tokens: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, maxTokenBytes), maxTokenBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoTokens
	}
	return out, nil
}

// GenerateTokens signs one demo card token per student id.
func GenerateTokens(secret string, ids []int64, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrNoTokens
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		tok, err := repository.SignToken([]byte(secret), id, now)
		if err != nil {
			return nil, fmt.Errorf("token for student %d: %w", id, err)
		}
		out = append(out, tok)
	}
	return out, nil
}

// ParseIDs parses a comma separated list of ids and inclusive ranges,
// e.g. "1-6,9,12-13".
func ParseIDs(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil || from <= 0 {
			return nil, fmt.Errorf("invalid student id %q", part)
		}
		to := from
		if isRange {
			to, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
			if err != nil || to < from {
				return nil, fmt.Errorf("invalid student range %q", part)
			}
		}
		for id := from; id <= to; id++ {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTokens
	}
	return out, nil
}

// shuffle permutes tokens in place using crypto/rand.
func shuffle(tokens []string) {
	for i := len(tokens) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return
		}
		j := int(n.Int64())
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
}
