package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"konsilium/internal/generator"
)

// Generator produces the response text for a query.
// *generator.Client is the production implementation.
type Generator interface {
	Generate(ctx context.Context, query string) (string, error)
}

// Result is the outcome of one Submission.
type Result struct {
	Submission Submission
	Text       string
	Err        error
	Endpoint   string
	Duration   time.Duration
}

// StatusCode returns the HTTP status of a server failure, or 0.
func (r Result) StatusCode() int {
	var genErr *generator.Error
	if errors.As(r.Err, &genErr) {
		return genErr.StatusCode
	}
	return 0
}

// Run performs the network call for sub. It never panics: a panicking
// Generator is reported as an error so the form always reaches Finish.
// Safe to call from any goroutine; it does not touch the Form.
func Run(ctx context.Context, gen Generator, sub Submission) (res Result) {
	res.Submission = sub
	if u, ok := gen.(interface{ URL() string }); ok {
		res.Endpoint = u.URL()
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Text = ""
			res.Err = fmt.Errorf("generator panicked: %v", r)
		}
	}()

	ctx = generator.WithRequestID(ctx, sub.ID)
	text, err := gen.Generate(ctx, sub.Query)
	if err != nil {
		res.Err = err
		return res
	}
	res.Text = text
	return res
}

// Submit runs a whole submission synchronously: Begin, Run, Finish.
// It returns the generation error (if any) for callers that need an exit
// status; the form already holds the user-facing outcome.
func Submit(ctx context.Context, f *Form, gen Generator) error {
	sub := f.Begin()
	res := Run(ctx, gen, sub)
	f.Finish(res)
	return res.Err
}
