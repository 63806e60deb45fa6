package decoder

import (
	"errors"
	"strconv"
	"strings"
)

// RequestKind classifies a command word.
type RequestKind int

// Request kinds.
const (
	RequestSet RequestKind = iota
	RequestStatus
)

// Request is a parsed command word of the HTTP surface.
type Request struct {
	Kind    RequestKind
	Command Command
}

var (
	// ErrInvalidCommand indicates the word is neither C0 nor C1.
	ErrInvalidCommand = errors.New("invalid command")

	digitCodes = map[byte]Code{
		'1': CodeVelocity,
		'2': CodeOmega,
		'3': CodeLeft,
		'4': CodeRight,
		'5': CodeGrip,
		'6': CodeHeading,
		'7': CodeTrackingError,
		'8': CodeGoalX,
		'9': CodeGoalY,
		'0': CodeGoalHeading,
	}
)

// valueWidth is the number of characters carrying the value.
const valueWidth = 6

// ParseCommandWord parses a command word:
//
//	C0<digit><value>  sets the slot selected by digit
//	C1                reads back the status of the selected slot
//
// An unknown digit yields a Command with code 0 which the Decoder ignores.
// The value is read like atof from at most six characters.
func ParseCommandWord(word string) (Request, error) {
	if len(word) < 2 || word[0] != 'C' {
		return Request{}, ErrInvalidCommand
	}
	switch word[1] {
	case '0':
		var req Request
		if len(word) < 3 {
			return req, nil
		}
		req.Command.Code = digitCodes[word[2]]
		value := word[3:]
		if len(value) > valueWidth {
			value = value[:valueWidth]
		}
		req.Command.Value = float32(atof(value))
		return req, nil
	case '1':
		return Request{Kind: RequestStatus}, nil
	}
	return Request{}, ErrInvalidCommand
}

// ParseRequestURI extracts the command word from "/cmd?<word>" style URIs.
// A single separator after "/cmd" is skipped.
func ParseRequestURI(uri string) (Request, error) {
	rest := strings.TrimPrefix(uri, "/cmd")
	if rest == uri {
		return Request{}, ErrInvalidCommand
	}
	rest = strings.TrimLeft(rest, "?/=")
	return ParseCommandWord(rest)
}

// atof parses the longest numeric prefix, 0 if there is none.
func atof(s string) float64 {
	s = strings.TrimLeft(s, " \t")
	end, digits := 0, 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	// out of range values come back as ±Inf or 0 like atof.
	v, _ := strconv.ParseFloat(s[:end], 64)
	return v
}
