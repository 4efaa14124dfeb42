// Package logging wires log/slog with the console and JSON handlers used
// across the application, plus small attribute helpers so call sites stay
// terse. The console handler prints one line per record with a leading
// component label and key=value pairs.
package logging
