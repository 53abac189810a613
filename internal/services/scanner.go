package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	clamd "github.com/dutchcoders/go-clamd"
	"github.com/rs/zerolog"
)

// Verdict is the outcome of scanning one upload.
type Verdict struct {
	Infected  bool
	Signature string
}

// Scanner inspects upload bytes before they are stored.
type Scanner interface {
	Scan(ctx context.Context, data []byte) (Verdict, error)
}

// ClamAVScanner streams uploads to a clamd daemon.
type ClamAVScanner struct {
	client *clamd.Clamd
	log    zerolog.Logger
}

// NewClamAVScanner returns a scanner for address, e.g. tcp://localhost:3310.
func NewClamAVScanner(address string, log zerolog.Logger) *ClamAVScanner {
	return &ClamAVScanner{client: clamd.NewClamd(address), log: log}
}

// Ping checks that clamd answers.
func (s *ClamAVScanner) Ping() error {
	return s.client.Ping()
}

func (s *ClamAVScanner) Scan(ctx context.Context, data []byte) (Verdict, error) {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(bytes.NewReader(data), abort)
	if err != nil {
		return Verdict{}, fmt.Errorf("clamd scan: %w", err)
	}

	var verdict Verdict
	for {
		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case res, ok := <-results:
			if !ok {
				return verdict, nil
			}
			switch res.Status {
			case clamd.RES_FOUND:
				verdict.Infected = true
				verdict.Signature = strings.TrimSpace(res.Description)
				s.log.Warn().Str("signature", verdict.Signature).Msg("malware detected in upload")
			case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
				return Verdict{}, fmt.Errorf("clamd scan: %s", strings.TrimSpace(res.Raw))
			}
		}
	}
}

var _ Scanner = (*ClamAVScanner)(nil)
