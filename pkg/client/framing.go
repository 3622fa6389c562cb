package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Framing turns a generation request into a request body
type Framing interface {
	Name() string
	ContentType() string
	Encode(req Request) ([]byte, error)
}

// LegacyFraming is the service's plain-text format:
// <sequence JSON>;;;<temperature>;;;<output length>
type LegacyFraming struct{}

const legacySeparator = ";;;"

func (LegacyFraming) Name() string        { return "legacy" }
func (LegacyFraming) ContentType() string { return "text/plain" }

func (LegacyFraming) Encode(req Request) ([]byte, error) {
	seq, err := json.Marshal(req.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sequence: %w", err)
	}
	parts := []string{
		string(seq),
		strconv.FormatFloat(req.Temperature, 'f', -1, 64),
		strconv.Itoa(req.OutputLength),
	}
	return []byte(strings.Join(parts, legacySeparator)), nil
}

// JSONFraming sends the request as a JSON object with named fields
type JSONFraming struct{}

func (JSONFraming) Name() string        { return "json" }
func (JSONFraming) ContentType() string { return "application/json" }

func (JSONFraming) Encode(req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return body, nil
}

// FramingByName resolves "legacy" or "json"
func FramingByName(name string) (Framing, error) {
	switch strings.ToLower(name) {
	case "", "legacy", "text":
		return LegacyFraming{}, nil
	case "json":
		return JSONFraming{}, nil
	default:
		return nil, fmt.Errorf("unknown framing %q (want legacy or json)", name)
	}
}
