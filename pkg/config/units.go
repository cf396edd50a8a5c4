package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings ("90s", "1h30m") or a bare number
// of seconds ("2.5").
type Duration time.Duration

// SizeBytes accepts humanized sizes ("64MB", "1GiB") or a bare byte count.
type SizeBytes int64

func (d Duration) Duration() time.Duration { return time.Duration(d) }
func (d Duration) String() string          { return time.Duration(d).String() }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := parseDuration(string(b))
	if err == nil {
		*d = v
	}
	return err
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

func (s SizeBytes) Int64() int64   { return int64(s) }
func (s SizeBytes) String() string { return humanize.IBytes(uint64(s)) }

func (s *SizeBytes) UnmarshalText(b []byte) error {
	v, err := parseSize(string(b))
	if err == nil {
		*s = v
	}
	return err
}

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	return s.UnmarshalText([]byte(node.Value))
}

// parseDuration maps "" to zero, which ApplyDefaults later fills in.
func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(secs * float64(time.Second)), nil
	}
	td, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Newf("invalid duration %q", raw)
	}
	return Duration(td), nil
}

func parseSize(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, errors.Newf("invalid size %q", raw)
	}
	return SizeBytes(n), nil
}
