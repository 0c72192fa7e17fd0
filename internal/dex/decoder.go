package dex

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"poolScope/internal/model"
)

const wordSize = 32

// Decode failure classes. Use errors.Is against a *DecodeError.
var (
	ErrNoMatch         = errors.New("log does not match event")
	ErrMissingTopic    = errors.New("missing topic")
	ErrMalformedTopic  = errors.New("malformed topic")
	ErrPayloadTooShort = errors.New("payload too short")
)

// DecodeError describes why a single log could not be decoded.
type DecodeError struct {
	Event EventKind
	Err   error
	// Topic is the offending topic index for topic errors.
	Topic int
	// Want and Got are byte lengths for length errors.
	Want int
	Got  int
}

func (e *DecodeError) Error() string {
	switch e.Err {
	case ErrMissingTopic:
		return fmt.Sprintf("%s: missing topic %d", e.Event, e.Topic)
	case ErrMalformedTopic:
		return fmt.Sprintf("%s: topic %d length %d, want %d", e.Event, e.Topic, e.Got, e.Want)
	case ErrPayloadTooShort:
		return fmt.Sprintf("%s: data length %d, want at least %d", e.Event, e.Got, e.Want)
	default:
		return fmt.Sprintf("%s: %v", e.Event, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Reason is a stable label for metrics and failure records.
func (e *DecodeError) Reason() string {
	switch e.Err {
	case ErrNoMatch:
		return "no_match"
	case ErrMissingTopic:
		return "missing_topic"
	case ErrMalformedTopic:
		return "malformed_topic"
	case ErrPayloadTooShort:
		return "payload_too_short"
	default:
		return "unknown"
	}
}

// Decoder turns matched raw logs into typed events.
type Decoder struct {
	matcher *Matcher
}

// NewDecoder builds a decoder; a nil matcher uses the compiled-in signatures.
func NewDecoder(matcher *Matcher) *Decoder {
	if matcher == nil {
		matcher = defaultMatcher
	}
	return &Decoder{matcher: matcher}
}

// Matcher returns the matcher used by the decoder.
func (d *Decoder) Matcher() *Matcher {
	return d.matcher
}

// Decode parses log as kind. It fails with ErrNoMatch when the log's shape or
// signature is not the kind's.
func (d *Decoder) Decode(log model.RawLog, kind EventKind) (Event, error) {
	if !d.matcher.Matches(log, kind) {
		return nil, &DecodeError{Event: kind, Err: ErrNoMatch}
	}

	switch kind {
	case KindSwap:
		swap, err := decodeSwap(log)
		if err != nil {
			return nil, err
		}
		return swap, nil
	case KindMint:
		sender, recipient, amount0, amount1, err := decodeLiquidity(log, kind)
		if err != nil {
			return nil, err
		}
		return Mint{Sender: sender, Recipient: recipient, Amount0: amount0, Amount1: amount1}, nil
	case KindBurn:
		sender, recipient, amount0, amount1, err := decodeLiquidity(log, kind)
		if err != nil {
			return nil, err
		}
		return Burn{Sender: sender, Recipient: recipient, Amount0: amount0, Amount1: amount1}, nil
	case KindSync:
		words, err := dataWords(log.Data, kind)
		if err != nil {
			return nil, err
		}
		return Sync{Reserve0: words[0], Reserve1: words[1]}, nil
	default:
		return nil, &DecodeError{Event: kind, Err: ErrNoMatch}
	}
}

// MatchAndDecode returns ok=false without error for logs that do not match kind.
func (d *Decoder) MatchAndDecode(log model.RawLog, kind EventKind) (Event, bool, error) {
	if !d.matcher.Matches(log, kind) {
		return nil, false, nil
	}
	event, err := d.Decode(log, kind)
	if err != nil {
		return nil, true, err
	}
	return event, true, nil
}

func decodeSwap(log model.RawLog) (Swap, error) {
	sender, err := topicAddress(log.Topics, 1, KindSwap)
	if err != nil {
		return Swap{}, err
	}
	recipient, err := topicAddress(log.Topics, 2, KindSwap)
	if err != nil {
		return Swap{}, err
	}
	words, err := dataWords(log.Data, KindSwap)
	if err != nil {
		return Swap{}, err
	}
	return Swap{
		Sender:     sender,
		Recipient:  recipient,
		Amount0In:  words[0],
		Amount1In:  words[1],
		Amount0Out: words[2],
		Amount1Out: words[3],
	}, nil
}

func decodeLiquidity(log model.RawLog, kind EventKind) (common.Address, common.Address, *uint256.Int, *uint256.Int, error) {
	sender, err := topicAddress(log.Topics, 1, kind)
	if err != nil {
		return common.Address{}, common.Address{}, nil, nil, err
	}
	recipient, err := topicAddress(log.Topics, 2, kind)
	if err != nil {
		return common.Address{}, common.Address{}, nil, nil, err
	}
	words, err := dataWords(log.Data, kind)
	if err != nil {
		return common.Address{}, common.Address{}, nil, nil, err
	}
	return sender, recipient, words[0], words[1], nil
}

// topicAddress reads an address from the low 20 bytes of a 32-byte topic.
func topicAddress(topics []hexutil.Bytes, index int, kind EventKind) (common.Address, error) {
	if index >= len(topics) {
		return common.Address{}, &DecodeError{Event: kind, Err: ErrMissingTopic, Topic: index}
	}
	topic := topics[index]
	if len(topic) != common.HashLength {
		return common.Address{}, &DecodeError{Event: kind, Err: ErrMalformedTopic, Topic: index, Want: common.HashLength, Got: len(topic)}
	}
	return common.BytesToAddress(topic[common.HashLength-common.AddressLength:]), nil
}

// dataWords reads the kind's leading 32-byte big-endian words. Trailing bytes are ignored.
func dataWords(data []byte, kind EventKind) ([]*uint256.Int, error) {
	want := kind.MinDataLen()
	if len(data) < want {
		return nil, &DecodeError{Event: kind, Err: ErrPayloadTooShort, Want: want, Got: len(data)}
	}
	words := make([]*uint256.Int, want/wordSize)
	for i := range words {
		words[i] = new(uint256.Int).SetBytes(data[i*wordSize : (i+1)*wordSize])
	}
	return words, nil
}
