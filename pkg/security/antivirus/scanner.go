package antivirus

import (
	"context"
	"errors"
)

// ErrNoScanner is reported when no scanner in a chain is reachable
var ErrNoScanner = errors.New("antivirus: no scanner available")

// ScanResult contains the result of a malware scan
type ScanResult struct {
	Infected    bool   // True if malware was detected
	ThreatName  string // Name of detected threat (empty if clean)
	ScannerName string // Name of scanner that produced this result
	Error       error  // Any error that occurred during scanning
}

// Clean reports whether the file may be stored. Errors count as not clean.
func (r ScanResult) Clean() bool {
	return !r.Infected && r.Error == nil
}

// Scanner is the interface for pluggable antivirus implementations.
// Attachments are rejected on detection; there is no quarantine.
type Scanner interface {
	// Scan checks file content for malware. Implementations fail closed:
	// an error during scanning sets Infected.
	Scan(ctx context.Context, filename string, data []byte) ScanResult

	// Name returns the scanner implementation name (for logging)
	Name() string

	// Available checks if the scanner is operational
	Available(ctx context.Context) bool
}

// NoOpScanner always reports clean. Used when no daemon is configured.
type NoOpScanner struct{}

var _ Scanner = (*NoOpScanner)(nil)

func (n *NoOpScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	return ScanResult{ScannerName: n.Name()}
}

func (n *NoOpScanner) Name() string {
	return "noop"
}

func (n *NoOpScanner) Available(ctx context.Context) bool {
	return true
}

// NewNoOpScanner creates a no-op scanner
func NewNoOpScanner() *NoOpScanner {
	return &NoOpScanner{}
}

// ChainScanner runs every available scanner and stops at the first
// one that does not report clean
type ChainScanner struct {
	scanners []Scanner
}

var _ Scanner = (*ChainScanner)(nil)

func NewChainScanner(scanners ...Scanner) *ChainScanner {
	return &ChainScanner{scanners: scanners}
}

func (c *ChainScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	ran := false
	last := ScanResult{ScannerName: c.Name()}
	for _, s := range c.scanners {
		if !s.Available(ctx) {
			continue
		}
		ran = true
		last = s.Scan(ctx, filename, data)
		if !last.Clean() {
			return last
		}
	}
	if !ran {
		return ScanResult{Infected: true, ScannerName: c.Name(), Error: ErrNoScanner}
	}
	return last
}

func (c *ChainScanner) Name() string {
	return "chain"
}

func (c *ChainScanner) Available(ctx context.Context) bool {
	for _, s := range c.scanners {
		if s.Available(ctx) {
			return true
		}
	}
	return false
}
