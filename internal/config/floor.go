package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/duty-bot/internal/rotation"
)

// Floor is the per-community rotation configuration.
type Floor struct {
	Layout        rotation.Layout
	Location      *time.Location
	NotifyTimeout time.Duration
}

// DefaultFloor is the sixth floor: rooms 601-619 on the left, 620-638 on the
// right, Tomsk time, ten minute announcement throttle.
func DefaultFloor() Floor {
	location, err := time.LoadLocation("Asia/Tomsk")
	if err != nil {
		location = time.FixedZone("+07", 7*60*60)
	}
	return Floor{
		Layout:        rotation.DefaultLayout(),
		Location:      location,
		NotifyTimeout: 10 * time.Minute,
	}
}

type floorFile struct {
	Left          *rotation.Universe `yaml:"left"`
	Right         *rotation.Universe `yaml:"right"`
	Timezone      string             `yaml:"timezone"`
	NotifyTimeout string             `yaml:"notify_timeout"`
}

// LoadFloor reads a YAML floor file. Omitted fields keep their defaults.
//
//	left: {first: 601, last: 619}
//	right: {first: 620, last: 638}
//	timezone: Asia/Tomsk
//	notify_timeout: 10m
func LoadFloor(path string) (Floor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Floor{}, fmt.Errorf("failed to read floor file: %w", err)
	}
	return ParseFloor(data)
}

// ParseFloor decodes a YAML floor document.
func ParseFloor(data []byte) (Floor, error) {
	var raw floorFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Floor{}, fmt.Errorf("invalid floor file: %w", err)
	}

	floor := DefaultFloor()
	if raw.Left != nil {
		floor.Layout.Left = *raw.Left
	}
	if raw.Right != nil {
		floor.Layout.Right = *raw.Right
	}
	if raw.Timezone != "" {
		location, err := time.LoadLocation(raw.Timezone)
		if err != nil {
			return Floor{}, fmt.Errorf("invalid floor timezone %q: %w", raw.Timezone, err)
		}
		floor.Location = location
	}
	if raw.NotifyTimeout != "" {
		timeout, err := time.ParseDuration(raw.NotifyTimeout)
		if err != nil || timeout <= 0 {
			return Floor{}, fmt.Errorf("invalid floor notify_timeout %q", raw.NotifyTimeout)
		}
		floor.NotifyTimeout = timeout
	}

	if err := floor.Layout.Validate(); err != nil {
		return Floor{}, fmt.Errorf("invalid floor layout: %w", err)
	}
	return floor, nil
}
