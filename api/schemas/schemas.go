package schemas

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/json-iterator/go"
)

// QuizRequest is the body accepted by the front end and the parameters of a session.
type QuizRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// PageSnapshot is the text read from a rendered page in one iteration.
type PageSnapshot struct {
	URL              string
	BodyText         string
	PreformattedText string
}

// Combined returns the directive search surface: preformatted text first, then body text.
func (p PageSnapshot) Combined() string {
	return p.PreformattedText + "\n" + p.BodyText
}

// DirectiveSet holds the URLs detected on a page. An empty string means absent.
type DirectiveSet struct {
	SubmitURL string `json:"submit_url,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	ScrapeURL string `json:"scrape_url,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
}

// -- Answer --

// AnswerKind tags the variant held by an Answer.
type AnswerKind int

const (
	AnswerNull AnswerKind = iota
	AnswerNumber
	AnswerText
	AnswerJSON
	AnswerDataURI
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerNumber:
		return "number"
	case AnswerText:
		return "text"
	case AnswerJSON:
		return "json"
	case AnswerDataURI:
		return "data_uri"
	default:
		return "null"
	}
}

// Answer is the value submitted for a page.
type Answer struct {
	Kind   AnswerKind
	Number float64
	// Text carries the string for AnswerText and AnswerDataURI.
	Text string
	// Raw carries an already encoded JSON value for AnswerJSON.
	Raw json.RawMessage
}

func NullAnswer() Answer                    { return Answer{Kind: AnswerNull} }
func NumberAnswer(f float64) Answer         { return Answer{Kind: AnswerNumber, Number: f} }
func TextAnswer(s string) Answer            { return Answer{Kind: AnswerText, Text: s} }
func DataURIAnswer(s string) Answer         { return Answer{Kind: AnswerDataURI, Text: s} }
func JSONAnswer(raw json.RawMessage) Answer { return Answer{Kind: AnswerJSON, Raw: raw} }

// IsString reports whether the answer serializes as a JSON string.
func (a Answer) IsString() bool {
	return a.Kind == AnswerText || a.Kind == AnswerDataURI
}

// Truncate cuts string answers to at most n characters. Other kinds are returned unchanged.
func (a Answer) Truncate(n int) Answer {
	if !a.IsString() || utf8.RuneCountInString(a.Text) <= n {
		return a
	}
	runes := []rune(a.Text)
	a.Text = string(runes[:n])
	return a
}

// MarshalJSON encodes the answer as null, a number, a string or the raw JSON value.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerNumber:
		if math.IsNaN(a.Number) || math.IsInf(a.Number, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(a.Number, 'f', -1, 64)), nil
	case AnswerText, AnswerDataURI:
		return json.Marshal(a.Text)
	case AnswerJSON:
		if len(a.Raw) == 0 {
			return []byte("null"), nil
		}
		return a.Raw, nil
	default:
		return []byte("null"), nil
	}
}

// String renders a short human readable form for logs.
func (a Answer) String() string {
	var s string
	switch a.Kind {
	case AnswerNumber:
		s = strconv.FormatFloat(a.Number, 'f', -1, 64)
	case AnswerText, AnswerDataURI:
		s = a.Text
	case AnswerJSON:
		s = string(a.Raw)
	default:
		return "null"
	}
	if utf8.RuneCountInString(s) > 120 {
		s = string([]rune(s)[:120]) + "..."
	}
	return strings.ReplaceAll(s, "\n", " ")
}

// -- Submission --

// SubmissionPayload is the JSON body POSTed to a submit endpoint.
type SubmissionPayload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Answer Answer `json:"answer"`
}

// SubmissionResult is what the submit endpoint told us.
type SubmissionResult struct {
	HTTPStatus int
	// NextURL is empty when the response named no next page.
	NextURL string
}

// -- Outcome --

// TerminationReason names why a session stopped.
type TerminationReason string

const (
	ReasonCompleted           TerminationReason = "Completed"
	ReasonTimeExhausted       TerminationReason = "TimeExhausted"
	ReasonCycleDetected       TerminationReason = "CycleDetected"
	ReasonNavigationFailed    TerminationReason = "NavigationFailed"
	ReasonSubmitURLNotFound   TerminationReason = "SubmitURLNotFound"
	ReasonSubmissionFailed    TerminationReason = "SubmissionFailed"
	ReasonCanceled            TerminationReason = "Canceled"
	ReasonRendererUnavailable TerminationReason = "RendererUnavailable"
)

// Outcome summarizes a finished session.
type Outcome struct {
	SessionID  string            `json:"session_id"`
	Reason     TerminationReason `json:"reason"`
	Iterations int               `json:"iterations"`
	LastURL    string            `json:"last_url"`
	Elapsed    time.Duration     `json:"elapsed"`
	Err        error             `json:"-"`
}
