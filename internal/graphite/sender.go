// Package graphite delivers aggregated records to a Carbon endpoint using
// the plaintext protocol.
package graphite

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dashwatch/internal/pipeline"
)

// Options parameterise the sender.
type Options struct {
	Addr    string
	Timeout time.Duration
}

// Sender writes metric lines over TCP. One connection per delivery; the
// plaintext protocol has no acknowledgements, so a successful write and
// close is as good as it gets.
type Sender struct {
	opts   Options
	logger zerolog.Logger
}

// NewSender constructs a graphite sender.
func NewSender(opts Options, logger zerolog.Logger) *Sender {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Sender{
		opts:   opts,
		logger: logger.With().Str("component", "graphite").Logger(),
	}
}

// Deliver writes every field of every record as one
// "<namespace>.<module>_module.<field> <value> <unix_ts>" line.
func (s *Sender) Deliver(ctx context.Context, namespace, module string, records []pipeline.Record) error {
	if s.opts.Addr == "" {
		return fmt.Errorf("graphite address not configured")
	}
	if len(records) == 0 {
		return nil
	}

	dialer := net.Dialer{Timeout: s.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("dial graphite %s: %w", s.opts.Addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(s.opts.Timeout)); err != nil {
		return fmt.Errorf("set graphite write deadline: %w", err)
	}

	writer := bufio.NewWriter(conn)
	lines := 0
	for _, record := range records {
		ts := record.Timestamp.Unix()
		for _, field := range sortedFields(record.Fields) {
			path := metricPath(namespace, module, field)
			value := strconv.FormatFloat(record.Fields[field], 'g', -1, 64)
			if _, err := fmt.Fprintf(writer, "%s %s %d\n", path, value, ts); err != nil {
				return fmt.Errorf("write graphite line: %w", err)
			}
			lines++
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush graphite lines: %w", err)
	}

	s.logger.Debug().Str("module", module).Int("lines", lines).Msg("metrics written")
	return nil
}

// metricPath builds the storage key for one field. Matches the naming the
// backend already holds: <namespace>.<module>_module.<field>.
func metricPath(namespace, module, field string) string {
	module = strings.ReplaceAll(module, " ", "_")
	return fmt.Sprintf("%s.%s_module.%s", namespace, module, field)
}

func sortedFields(fields map[string]float64) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
