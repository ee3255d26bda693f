// Package logtail reads the end of portalwatch's JSON log for the in-app log
// view.
//
// Read keeps a ring of the last maxLines lines while scanning the file once,
// so memory stays bounded by maxLines regardless of file size. Parse turns a
// zerolog JSON line into an Entry, lifting time, level, component, message
// and error out of the object and keeping the rest as string fields. Lines
// that are not JSON (a panic trace, for example) are kept verbatim in Raw.
//
// Format renders an Entry as one plain line with extra fields sorted by key.
// Styling is left to the UI.
package logtail
