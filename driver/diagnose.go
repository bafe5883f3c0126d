package driver

import (
	"errors"
	"fmt"

	"github.com/jlaustill/c-next-sub006/analysis"
	"github.com/jlaustill/c-next-sub006/diagnostic"
	"github.com/jlaustill/c-next-sub006/parser/token"
)

// Diagnose converts a build's findings into renderable diagnostics, in
// build order: errors first, then warnings.
func Diagnose(res *Result) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, err := range res.Errors {
		diags = append(diags, diagnoseError(err))
	}
	for _, w := range res.Warnings {
		d := diagnostic.Diagnostic{
			Severity: diagnostic.SeverityWarning,
			Message:  w.Message,
		}
		if w.Source != nil {
			d.Spans = []diagnostic.Span{spanAt(w.Source, "")}
		}
		diags = append(diags, d)
	}
	return diags
}

func diagnoseError(err error) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  err.Error(),
	}
	var (
		width   *analysis.BitmapWidthError
		include *IncludeError
		located *token.LocationError
	)
	switch {
	case errors.As(err, &width):
		d.Message = width.Error()
		if width.Source != nil {
			d.Spans = []diagnostic.Span{spanAt(width.Source,
				fmt.Sprintf("fields sum to %d bits", width.Sum))}
		}
		d.Notes = []string{fmt.Sprintf("field widths must sum to exactly %d", width.Declared)}
	case errors.As(err, &include):
		if include.Err != nil {
			d.Message = fmt.Sprintf("include %q: %v", include.Target, include.Err)
		} else {
			d.Message = fmt.Sprintf("include %q: header not found", include.Target)
			d.Notes = []string{"searched next to the including file and in every include directory"}
		}
		if include.Source != nil {
			d.Spans = []diagnostic.Span{spanAt(include.Source, "")}
		} else {
			d.Spans = []diagnostic.Span{{File: include.From}}
		}
	case errors.As(err, &located):
		d.Message = located.Err.Error()
		if located.Source != nil {
			d.Spans = []diagnostic.Span{spanAt(located.Source, "")}
		}
	}
	return d
}

func spanAt(loc *token.Location, label string) diagnostic.Span {
	return diagnostic.Span{File: loc.File, Line: loc.Line, Col: loc.Col, Label: label}
}
