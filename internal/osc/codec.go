// Package osc converts commands and telemetry between the contracts types
// and Open Sound Control datagrams.
package osc

import (
	"errors"
	"fmt"
	"math"

	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

var (
	ErrMalformedPacket = errors.New("malformed OSC packet")
	ErrUnsupportedArg  = errors.New("unsupported OSC argument")
)

// Message is one decoded OSC message.
type Message struct {
	Address string
	Args    []contracts.Arg
}

// Encode serializes a command into a single OSC message.
func Encode(cmd contracts.Command) ([]byte, error) {
	msg := goosc.NewMessage(string(cmd.Op))
	for _, a := range cmd.Arguments() {
		switch a.Type {
		case contracts.IntArg:
			msg.Append(a.Int)
		case contracts.FloatArg:
			msg.Append(a.Float)
		case contracts.StringArg:
			msg.Append(a.Str)
		default:
			return nil, fmt.Errorf("%w: type tag %q", ErrUnsupportedArg, a.Type)
		}
	}
	return msg.MarshalBinary()
}

// Decode parses a datagram. Bundles are flattened in order.
// It never panics; malformed input yields ErrMalformedPacket.
func Decode(data []byte) (msgs []Message, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty datagram", ErrMalformedPacket)
	}

	defer func() {
		if r := recover(); r != nil {
			msgs = nil
			err = fmt.Errorf("%w: %v", ErrMalformedPacket, r)
		}
	}()

	packet, err := goosc.ParsePacket(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	return flatten(packet, nil)
}

func flatten(p goosc.Packet, out []Message) ([]Message, error) {
	switch v := p.(type) {
	case *goosc.Message:
		m, err := convert(v)
		if err != nil {
			return nil, err
		}
		return append(out, m), nil
	case *goosc.Bundle:
		var err error
		for _, m := range v.Messages {
			if out, err = flatten(m, out); err != nil {
				return nil, err
			}
		}
		for _, b := range v.Bundles {
			if out, err = flatten(b, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unexpected packet %T", ErrMalformedPacket, p)
}

func convert(m *goosc.Message) (Message, error) {
	if m.Address == "" {
		return Message{}, fmt.Errorf("%w: missing address", ErrMalformedPacket)
	}
	args := make([]contracts.Arg, 0, len(m.Arguments))
	for _, raw := range m.Arguments {
		a, err := toArg(raw)
		if err != nil {
			return Message{}, fmt.Errorf("%s: %w", m.Address, err)
		}
		args = append(args, a)
	}
	return Message{Address: m.Address, Args: args}, nil
}

func toArg(v interface{}) (contracts.Arg, error) {
	switch x := v.(type) {
	case int32:
		return contracts.Int(x), nil
	case int64:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return contracts.Arg{}, fmt.Errorf("%w: int64 %d out of range", ErrUnsupportedArg, x)
		}
		return contracts.Int(int32(x)), nil
	case float32:
		return contracts.Float(x), nil
	case float64:
		return contracts.Float(float32(x)), nil
	case string:
		return contracts.String(x), nil
	case bool:
		if x {
			return contracts.Int(1), nil
		}
		return contracts.Int(0), nil
	}
	return contracts.Arg{}, fmt.Errorf("%w: %T", ErrUnsupportedArg, v)
}
