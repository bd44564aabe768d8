package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/greentab/internal/config"
	"github.com/runnerr0/greentab/internal/footprint"
	"github.com/runnerr0/greentab/internal/inspector"
)

type measureJSON struct {
	URL              string  `json:"url"`
	PageSize         int64   `json:"page_size"`
	DocumentBytes    int     `json:"document_bytes"`
	DocumentTransfer int64   `json:"document_transfer"`
	Resources        int     `json:"resources"`
	EnergyKWh        float64 `json:"energy_kwh"`
	CarbonKg         float64 `json:"carbon_kg"`
	Sent             bool    `json:"sent"`
}

// Execute implements the go-flags Commander interface for MeasureCommand.
func (c *MeasureCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for measure command")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	var sender *inspector.Sender
	if !c.DryRun {
		sender = inspector.NewSender(cfg.DaemonURL())
	}
	return c.executeWith(context.Background(), newProber(cfg, c.globals), sender)
}

func newProber(cfg *config.Config, globals *GlobalFlags) *inspector.Prober {
	p := inspector.NewProber(commandLogger(globals))
	p.Concurrency = cfg.Inspector.Concurrency
	p.MaxResources = cfg.Inspector.MaxResources
	if cfg.Inspector.TimeoutSeconds > 0 {
		p.Client.Timeout = time.Duration(cfg.Inspector.TimeoutSeconds) * time.Second
	}
	return p
}

// executeWith measures the page and, when sender is non-nil, reports the
// size to the daemon (for testing).
func (c *MeasureCommand) executeWith(ctx context.Context, prober *inspector.Prober, sender *inspector.Sender) error {
	m, err := prober.Probe(ctx, c.URL)
	if err != nil {
		return fmt.Errorf("measure %s: %w", c.URL, err)
	}

	sent := false
	if sender != nil {
		if err := sender.Send(ctx, m.PageSize); err != nil {
			return err
		}
		sent = true
	}

	est := footprint.FromPageSize(m.PageSize)
	if c.globals != nil && c.globals.JSON {
		return printJSON(measureJSON{
			URL:              m.URL,
			PageSize:         m.PageSize,
			DocumentBytes:    len(m.Document),
			DocumentTransfer: m.DocumentTransfer,
			Resources:        len(m.Resources),
			EnergyKWh:        est.EnergyKWh,
			CarbonKg:         est.CarbonKg,
			Sent:             sent,
		})
	}

	fmt.Printf("Measured %s\n", m.URL)
	fmt.Printf("  Document:  %s (%s on the wire)\n", formatBytes(int64(len(m.Document))), formatBytes(m.DocumentTransfer))
	fmt.Printf("  Resources: %d\n", len(m.Resources))
	fmt.Printf("  Page size: %s (%s bytes)\n", formatBytes(m.PageSize), formatNumber(m.PageSize))
	fmt.Printf("  Estimate:  %.6f kWh, %.6f kg CO₂e\n", est.EnergyKWh, est.CarbonKg)
	if sent {
		fmt.Println("  Sent to daemon.")
	}
	return nil
}
