// Package collector is the boundary to the pricing platform's web UI.
// The actual browser automation lives in an external script; this
// package only shells out to it and translates its JSON snapshots into
// engine inputs.
package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"rateminder/server/internal/models"
	"rateminder/server/internal/occupancy"
)

// Snapshot is the current platform state for one listing. Occupancy
// values arrive as whatever the DOM held (percentage strings, numbers,
// "N/A") and are normalized before the engine ever sees them.
type Snapshot struct {
	PropertyID string  `json:"property_id"`
	SevenDay   any     `json:"occupancy_7_day"`
	ThirtyDay  any     `json:"occupancy_30_day"`
	SixtyDay   any     `json:"occupancy_60_day"`
	MinPrice   float64 `json:"min_price"`
	BasePrice  float64 `json:"base_price"`
}

// Reading returns the snapshot's occupancy in canonical form.
func (s *Snapshot) Reading() models.OccupancyReading {
	return occupancy.Reading(s.SevenDay, s.ThirtyDay, s.SixtyDay)
}

// PriceSource supplies current platform state and applies new prices.
// The engine depends only on this interface; the browser automation
// behind it is replaceable.
type PriceSource interface {
	Fetch(propertyURL string) (*Snapshot, error)
	ApplyPrice(propertyURL string, priceType models.PriceType, price float64) error
}

// ScriptCollector runs the external automation script once per
// operation, passing a JSON request on stdin and reading a JSON reply
// from stdout.
type ScriptCollector struct {
	scriptPath string
	logger     *logrus.Logger
}

func NewScriptCollector(scriptPath string, logger *logrus.Logger) *ScriptCollector {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &ScriptCollector{
		scriptPath: scriptPath,
		logger:     logger,
	}
}

type scriptRequest struct {
	Action    string  `json:"action"`
	URL       string  `json:"url"`
	PriceType string  `json:"price_type,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

type scriptReply struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Fetch reads the listing's current occupancy and prices.
func (c *ScriptCollector) Fetch(propertyURL string) (*Snapshot, error) {
	reply, err := c.run(scriptRequest{Action: "fetch", URL: propertyURL})
	if err != nil {
		return nil, err
	}
	if reply.Snapshot == nil {
		return nil, fmt.Errorf("automation script returned no snapshot for %s", propertyURL)
	}
	return reply.Snapshot, nil
}

// ApplyPrice sets one price on the platform.
func (c *ScriptCollector) ApplyPrice(propertyURL string, priceType models.PriceType, price float64) error {
	_, err := c.run(scriptRequest{
		Action:    "apply",
		URL:       propertyURL,
		PriceType: string(priceType),
		Price:     price,
	})
	return err
}

func (c *ScriptCollector) run(req scriptRequest) (*scriptReply, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal automation request: %w", err)
	}

	cmd := exec.Command("python3", c.scriptPath)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.WithFields(logrus.Fields{
		"action": req.Action,
		"url":    req.URL,
	}).Debug("Running automation script")

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("automation script failed: %v (%s)", err, strings.TrimSpace(stderr.String()))
	}

	reply, err := decodeReply(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("automation script error: %s", reply.Error)
	}
	return reply, nil
}

// decodeReply parses the last non-empty stdout line as the reply; the
// script is free to log progress on earlier lines.
func decodeReply(out []byte) (*scriptReply, error) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		var reply scriptReply
		if err := json.Unmarshal([]byte(line), &reply); err != nil {
			return nil, fmt.Errorf("failed to parse automation reply: %w", err)
		}
		return &reply, nil
	}
	return nil, fmt.Errorf("automation script produced no output")
}
