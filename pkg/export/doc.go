// Package export turns a circuit snapshot and its simulation report into
// shareable documents: a PNG diagram drawn with gonum's vector graphics
// backends and a PDF report laid out with fpdf.
//
// The PDF always tries to embed the diagram first. When drawing the
// diagram or placing it on the page fails, the report is rebuilt without
// it and lists the components as text instead. Only when that fallback
// fails as well does the export return an error, wrapping ErrExportFailure.
package export
